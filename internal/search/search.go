// Package search narrows and ranks catalog tools.
package search

import (
	"github.com/nikbrunner/aidir/internal/model"
	"github.com/sahilm/fuzzy"
)

// SearchResult represents a fuzzy search match.
type SearchResult struct {
	Tool           *model.Tool
	MatchedIndexes []int
	Score          int
}

// toolNames implements fuzzy.Source over tool names.
type toolNames []*model.Tool

func (tn toolNames) String(i int) string {
	return tn[i].Name
}

func (tn toolNames) Len() int {
	return len(tn)
}

// FuzzySearchTools searches tools by name using fuzzy matching.
// Returns results sorted by match score (best first).
func FuzzySearchTools(tools []model.Tool, query string) []SearchResult {
	if query == "" {
		return nil
	}

	names := make(toolNames, len(tools))
	for i := range tools {
		names[i] = &tools[i]
	}

	matches := fuzzy.FindFrom(query, names)

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Tool:           names[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}

	return results
}
