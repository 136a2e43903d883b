package search

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/aidir/internal/model"
)

func filterFixture() []model.Tool {
	return []model.Tool{
		{
			ID: "chat", Name: "ChatBot Pro", Description: "Conversational assistant",
			PrimaryCategory: "Chat", Categories: []string{"Writing"}, Tags: []string{"llm", "assistant"},
		},
		{
			ID: "paint", Name: "PaintAI", Description: "Image generation",
			PrimaryCategory: "Image", Categories: []string{"Design"}, Tags: []string{"diffusion"},
		},
		{
			ID: "write", Name: "Scribe", Description: "Long form writing helper",
			LongDescription: "Drafts blog posts with an LLM",
			PrimaryCategory: "Writing", Categories: []string{}, Tags: []string{},
		},
	}
}

func ids(tools []model.Tool) []string {
	out := make([]string, len(tools))
	for i, t := range tools {
		out[i] = t.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tools := filterFixture()

	tests := []struct {
		name       string
		query      string
		categories []string
		want       []string
	}{
		{name: "empty inputs keep order", want: []string{"chat", "paint", "write"}},
		{name: "blank query", query: "   ", want: []string{"chat", "paint", "write"}},
		{name: "case insensitive name", query: "paintai", want: []string{"paint"}},
		{name: "tag", query: "LLM", want: []string{"chat", "write"}},
		{name: "conjunctive terms", query: "llm blog", want: []string{"write"}},
		{name: "no match", query: "video", want: []string{}},
		{name: "primary category", categories: []string{"Writing"}, want: []string{"chat", "write"}},
		{name: "every category required", categories: []string{"Chat", "Writing"}, want: []string{"chat"}},
		{name: "query and category", query: "assistant", categories: []string{"Image"}, want: []string{}},
		{name: "blank category ignored", categories: []string{""}, want: []string{"chat", "paint", "write"}},
		{name: "category text is searchable", query: "design", want: []string{"paint"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tools, tt.query, tt.categories)
			assert.DeepEqual(t, ids(got), tt.want)
		})
	}
}

func TestFilter_ResultIsSubsetInInputOrder(t *testing.T) {
	tools := filterFixture()

	got := Filter(tools, "i", nil)

	pos := map[string]int{}
	for i, tl := range tools {
		pos[tl.ID] = i
	}
	last := -1
	for _, tl := range got {
		p, ok := pos[tl.ID]
		assert.Assert(t, ok, "unexpected tool %s", tl.ID)
		assert.Assert(t, p > last, "order not preserved at %s", tl.ID)
		last = p
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	tools := filterFixture()

	_ = Filter(tools, "scribe", []string{"Writing"})

	assert.Check(t, is.Len(tools, 3))
	assert.Check(t, is.Equal(tools[0].ID, "chat"))
}
