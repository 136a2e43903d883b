package importer_test

import (
	"context"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/aidir/internal/docstore"
	"github.com/nikbrunner/aidir/internal/importer"
	"github.com/nikbrunner/aidir/internal/model"
)

func TestImport_SkipsKnownURLs(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	assert.NilError(t, store.Set(ctx, "ai-tools/old", map[string]any{"name": "Old", "url": "https://old.example"}, false))

	tools := []model.Tool{
		model.NewTool(model.NewToolParams{Name: "Old again", URL: "https://old.example"}),
		model.NewTool(model.NewToolParams{Name: "New", URL: "https://new.example"}),
		model.NewTool(model.NewToolParams{Name: "New twice", URL: "https://new.example"}),
	}

	res, err := importer.Import(ctx, store, tools, nil)

	assert.NilError(t, err)
	assert.Equal(t, res, importer.Result{Added: 1, Skipped: 2})
	docs, err := store.List(ctx, "ai-tools")
	assert.NilError(t, err)
	assert.Check(t, is.Len(docs, 2))
}

func TestImport_WritesSummaryAndPricing(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	tool := model.NewTool(model.NewToolParams{Name: "Rich", URL: "https://rich.example"})
	tool.LongDescription = "All the details."
	tool.Pricing = []model.PricingPlan{{Name: "Pro", Price: "$20", Billing: "monthly"}}

	_, err := importer.Import(ctx, store, []model.Tool{tool}, nil)
	assert.NilError(t, err)

	summary, err := store.Get(ctx, "ai-tools/"+tool.ID+"/overview/summary")
	assert.NilError(t, err)
	assert.Assert(t, summary != nil)
	assert.Equal(t, summary.Data["longDescription"], "All the details.")

	plans, err := store.List(ctx, "ai-tools/"+tool.ID+"/pricing")
	assert.NilError(t, err)
	assert.Assert(t, is.Len(plans, 1))
	assert.Equal(t, plans[0].Data["billing"], "monthly")
}

func TestParseJSONTools(t *testing.T) {
	input := `[
  {"id": "gpt", "name": "ChatGPT", "description": "chat", "tags": ["llm"], "primaryCategory": "Chat", "rating": 4.9, "logoFileName": "gpt.png"},
  {"name": "NoID", "pricing": [{"name": "Free", "price": "$0"}]}
]`

	tools, err := importer.ParseJSONTools(strings.NewReader(input))

	assert.NilError(t, err)
	assert.Assert(t, is.Len(tools, 2))
	assert.Equal(t, tools[0].ID, "gpt")
	assert.Equal(t, *tools[0].Rating, 4.9)
	assert.Equal(t, tools[0].LogoFileName, "gpt.png")
	assert.Check(t, tools[1].ID != "")
	assert.Check(t, is.Len(tools[1].Pricing, 1))
	assert.DeepEqual(t, tools[1].Tags, []string{})
}

func TestParseJSONTools_RequiresName(t *testing.T) {
	_, err := importer.ParseJSONTools(strings.NewReader(`[{"id": "x"}]`))

	assert.ErrorContains(t, err, "name is required")
}
