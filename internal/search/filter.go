package search

import (
	"strings"

	"github.com/nikbrunner/aidir/internal/model"
)

// Filter returns the tools matching every whitespace-separated term of query
// and carrying every category in categories. Terms match case-insensitively
// as substrings of the name, descriptions, tags or categories; categories
// match exactly against the primary category and the categories list.
// With no terms and no categories the input comes back unchanged.
func Filter(tools []model.Tool, query string, categories []string) []model.Tool {
	terms := strings.Fields(strings.ToLower(query))
	wanted := make([]string, 0, len(categories))
	for _, c := range categories {
		if c != "" {
			wanted = append(wanted, c)
		}
	}
	if len(terms) == 0 && len(wanted) == 0 {
		return tools
	}

	result := make([]model.Tool, 0, len(tools))
	for _, t := range tools {
		if matchesCategories(t, wanted) && matchesTerms(t, terms) {
			result = append(result, t)
		}
	}
	return result
}

func matchesCategories(t model.Tool, wanted []string) bool {
	for _, c := range wanted {
		if !t.HasCategory(c) {
			return false
		}
	}
	return true
}

func matchesTerms(t model.Tool, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := searchText(t)
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// searchText joins the searchable fields, lower-cased, with a separator no
// term can contain so matches never straddle two fields.
func searchText(t model.Tool) string {
	fields := []string{t.Name, t.Description, t.LongDescription, t.PrimaryCategory}
	fields = append(fields, t.Tags...)
	fields = append(fields, t.Categories...)
	return strings.ToLower(strings.Join(fields, "\n"))
}
