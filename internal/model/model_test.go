package model_test

import (
	"testing"

	"github.com/nikbrunner/aidir/internal/model"
	"gotest.tools/v3/assert"
)

func ratingPtr(r float64) *float64 { return &r }

func TestResolveLogoURL(t *testing.T) {
	cfg := model.LogoConfig{BaseURL: "https://cdn.example.com/o/logos%2F", Suffix: "?alt=media"}

	tests := []struct {
		name     string
		fileName string
		imageURL string
		want     *string
	}{
		{
			name:     "file name wins over image url",
			fileName: "chat gpt.png",
			imageURL: "https://img.example.com/chatgpt.png",
			want:     strPtr("https://cdn.example.com/o/logos%2Fchat%20gpt.png?alt=media"),
		},
		{
			name:     "image url used when file name blank",
			fileName: "   ",
			imageURL: "https://img.example.com/claude.png",
			want:     strPtr("https://img.example.com/claude.png"),
		},
		{
			name: "neither set yields nil",
		},
		{
			name:     "reserved characters are encoded",
			fileName: "a+b/c(1).png",
			want:     strPtr("https://cdn.example.com/o/logos%2Fa%2Bb%2Fc(1).png?alt=media"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.ResolveLogoURL(tt.fileName, tt.imageURL, cfg)
			if tt.want == nil {
				assert.Assert(t, got == nil, "expected nil, got %v", got)
				return
			}
			assert.Assert(t, got != nil)
			assert.Equal(t, *got, *tt.want)
		})
	}
}

func strPtr(s string) *string { return &s }

func TestTool_Basic(t *testing.T) {
	tool := model.Tool{
		ID:              "t1",
		Name:            "ChatGPT",
		LongDescription: "long",
		Summary:         &model.Summary{LongDescription: "long"},
		Pricing:         []model.PricingPlan{{Name: "Plus", Price: "$20"}},
		Reviews:         []model.Review{{ID: "r1"}},
	}

	basic := tool.Basic()

	assert.Equal(t, basic.Name, "ChatGPT")
	assert.Equal(t, basic.LongDescription, "")
	assert.Assert(t, basic.Summary == nil)
	assert.Assert(t, basic.Pricing == nil)
	assert.Assert(t, basic.Reviews == nil)
	// original untouched
	assert.Equal(t, tool.LongDescription, "long")
}

func TestTool_AllCategories(t *testing.T) {
	tool := model.Tool{PrimaryCategory: "chat", Categories: []string{"", "writing", "coding"}}

	assert.DeepEqual(t, tool.AllCategories(), []string{"chat", "writing", "coding"})
	assert.Assert(t, tool.HasCategory("writing"))
	assert.Assert(t, !tool.HasCategory("image"))
}

func TestTool_RatingValue(t *testing.T) {
	assert.Equal(t, model.Tool{}.RatingValue(), 0.0)
	assert.Equal(t, model.Tool{Rating: ratingPtr(4.5)}.RatingValue(), 4.5)
}

func TestTool_Document(t *testing.T) {
	tool := model.NewTool(model.NewToolParams{
		Name:            "Midjourney",
		URL:             "https://midjourney.com",
		PrimaryCategory: "image",
	})
	tool.LongDescription = "not stored on the root document"

	doc := tool.Document()

	assert.Equal(t, doc["name"], "Midjourney")
	assert.Equal(t, doc["url"], "https://midjourney.com")
	_, hasRating := doc["rating"]
	assert.Assert(t, !hasRating)
	_, hasLong := doc["longDescription"]
	assert.Assert(t, !hasLong)
	_, hasLogo := doc["logoUrl"]
	assert.Assert(t, !hasLogo)
	assert.Assert(t, tool.ID != "")
}

func TestCatalog_Lookups(t *testing.T) {
	c := model.NewCatalog([]model.Tool{
		{ID: "a", Name: "A", PrimaryCategory: "chat", URL: "https://a.dev"},
		{ID: "b", Name: "B", PrimaryCategory: "image"},
		{ID: "c", Name: "C", PrimaryCategory: "chat"},
	})

	assert.Equal(t, c.GetToolByID("b").Name, "B")
	assert.Assert(t, c.GetToolByID("zzz") == nil)
	assert.Equal(t, len(c.GetToolsInCategory("chat")), 2)
	assert.DeepEqual(t, c.PrimaryCategories(), []string{"chat", "image"})
	assert.Assert(t, c.HasURL("https://a.dev"))
	assert.Assert(t, !c.HasURL(""))
}
