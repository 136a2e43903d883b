package model

import "sort"

// Catalog is an in-memory snapshot of tools.
type Catalog struct {
	Tools []Tool `json:"tools"`
}

// NewCatalog creates a Catalog around the given tools.
func NewCatalog(tools []Tool) *Catalog {
	if tools == nil {
		tools = []Tool{}
	}
	return &Catalog{Tools: tools}
}

// GetToolByID finds a tool by ID, returns nil if not found.
func (c *Catalog) GetToolByID(id string) *Tool {
	for i := range c.Tools {
		if c.Tools[i].ID == id {
			return &c.Tools[i]
		}
	}
	return nil
}

// GetToolsInCategory returns tools whose primary category matches.
// Pass "" for uncategorized tools.
func (c *Catalog) GetToolsInCategory(category string) []Tool {
	var result []Tool
	for _, t := range c.Tools {
		if t.PrimaryCategory == category {
			result = append(result, t)
		}
	}
	return result
}

// PrimaryCategories returns the distinct primary categories, sorted.
// The uncategorized group is reported as "" and sorts first.
func (c *Catalog) PrimaryCategories() []string {
	seen := make(map[string]bool)
	var result []string
	for _, t := range c.Tools {
		if !seen[t.PrimaryCategory] {
			seen[t.PrimaryCategory] = true
			result = append(result, t.PrimaryCategory)
		}
	}
	sort.Strings(result)
	return result
}

// HasURL reports whether any tool already points at url.
func (c *Catalog) HasURL(url string) bool {
	if url == "" {
		return false
	}
	for _, t := range c.Tools {
		if t.URL == url {
			return true
		}
	}
	return false
}
