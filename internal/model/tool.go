package model

import "strings"

// Tool is the flat view model of one catalog entry.
type Tool struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	PrimaryCategory string        `json:"primaryCategory"`
	Categories      []string      `json:"categories"`
	Tags            []string      `json:"tags"`
	TagsKr          []string      `json:"tagsKr,omitempty"`
	Rating          *float64      `json:"rating,omitempty"` // nil = unrated
	URL             string        `json:"url,omitempty"`
	LogoFileName    string        `json:"logoFileName,omitempty"`
	ImageURL        string        `json:"imageUrl,omitempty"`
	LogoURL         *string       `json:"logoUrl"` // derived, never stored
	Pricing         []PricingPlan `json:"pricing"`
	LongDescription string        `json:"longDescription"`
	Summary         *Summary      `json:"summary,omitempty"` // detail fetch only
	Reviews         []Review      `json:"reviews,omitempty"` // detail fetch only
}

// PricingPlan is one document of a tool's pricing sub-collection.
type PricingPlan struct {
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Billing  string   `json:"billing,omitempty"`
	Features []string `json:"features,omitempty"`
}

// Summary is the overview summary document of a tool.
type Summary struct {
	LongDescription string         `json:"longDescription"`
	Fields          map[string]any `json:"fields,omitempty"`
}

// Review is one document of a tool's reviews sub-collection.
type Review struct {
	ID        string   `json:"id"`
	Author    string   `json:"author"`
	Rating    *float64 `json:"rating,omitempty"`
	Comment   string   `json:"comment"`
	CreatedAt string   `json:"createdAt,omitempty"`
}

// NewToolParams holds parameters for creating a new Tool.
type NewToolParams struct {
	Name            string
	Description     string
	URL             string
	PrimaryCategory string
	Categories      []string
	Tags            []string
	ImageURL        string
}

// NewTool creates a Tool with a generated UUID.
func NewTool(params NewToolParams) Tool {
	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}
	categories := params.Categories
	if categories == nil {
		categories = []string{}
	}

	return Tool{
		ID:              GenerateUUID(),
		Name:            params.Name,
		Description:     params.Description,
		URL:             params.URL,
		PrimaryCategory: params.PrimaryCategory,
		Categories:      categories,
		Tags:            tags,
		ImageURL:        params.ImageURL,
		Pricing:         []PricingPlan{},
	}
}

// RatingValue returns the rating, treating unrated tools as 0.
func (t Tool) RatingValue() float64 {
	if t.Rating == nil {
		return 0
	}
	return *t.Rating
}

// AllCategories returns the primary category followed by the categories list,
// skipping blanks.
func (t Tool) AllCategories() []string {
	result := make([]string, 0, len(t.Categories)+1)
	if t.PrimaryCategory != "" {
		result = append(result, t.PrimaryCategory)
	}
	for _, c := range t.Categories {
		if c != "" {
			result = append(result, c)
		}
	}
	return result
}

// HasCategory reports whether the tool belongs to the given category.
func (t Tool) HasCategory(category string) bool {
	for _, c := range t.AllCategories() {
		if c == category {
			return true
		}
	}
	return false
}

// Basic returns the lightweight projection used for list rendering.
// Detail-only fields stay empty until an explicit detail fetch.
func (t Tool) Basic() Tool {
	b := t
	b.LongDescription = ""
	b.Summary = nil
	b.Pricing = nil
	b.Reviews = nil
	return b
}

// Document returns the fields persisted on the tool's own document.
// Derived and sub-collection fields are not included.
func (t Tool) Document() map[string]any {
	doc := map[string]any{
		"name":            t.Name,
		"description":     t.Description,
		"primaryCategory": t.PrimaryCategory,
		"categories":      nonNil(t.Categories),
		"tags":            nonNil(t.Tags),
	}
	if len(t.TagsKr) > 0 {
		doc["tagsKr"] = t.TagsKr
	}
	if t.Rating != nil {
		doc["rating"] = *t.Rating
	}
	if t.URL != "" {
		doc["url"] = t.URL
	}
	if strings.TrimSpace(t.LogoFileName) != "" {
		doc["logoFileName"] = t.LogoFileName
	}
	if strings.TrimSpace(t.ImageURL) != "" {
		doc["imageUrl"] = t.ImageURL
	}
	return doc
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
