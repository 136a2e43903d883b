package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nikbrunner/aidir/internal/model"
)

// jsonTool is one entry of a JSON catalog dump.
type jsonTool struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	PrimaryCategory string              `json:"primaryCategory"`
	Categories      []string            `json:"categories"`
	Tags            []string            `json:"tags"`
	TagsKr          []string            `json:"tagsKr"`
	Rating          *float64            `json:"rating"`
	URL             string              `json:"url"`
	LogoFileName    string              `json:"logoFileName"`
	ImageURL        string              `json:"imageUrl"`
	LongDescription string              `json:"longDescription"`
	Pricing         []model.PricingPlan `json:"pricing"`
}

// ParseJSONTools reads a JSON array of tools. Entries without a name are
// rejected; entries without an id get a generated one.
func ParseJSONTools(r io.Reader) ([]model.Tool, error) {
	var raw []jsonTool
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode tools: %w", err)
	}

	tools := make([]model.Tool, 0, len(raw))
	for i, jt := range raw {
		if strings.TrimSpace(jt.Name) == "" {
			return nil, fmt.Errorf("tool %d: name is required", i)
		}
		t := model.NewTool(model.NewToolParams{
			Name:            jt.Name,
			Description:     jt.Description,
			URL:             jt.URL,
			PrimaryCategory: jt.PrimaryCategory,
			Categories:      jt.Categories,
			Tags:            jt.Tags,
			ImageURL:        jt.ImageURL,
		})
		if jt.ID != "" {
			t.ID = jt.ID
		}
		t.TagsKr = jt.TagsKr
		t.Rating = jt.Rating
		t.LogoFileName = jt.LogoFileName
		t.LongDescription = jt.LongDescription
		if jt.Pricing != nil {
			t.Pricing = jt.Pricing
		}
		tools = append(tools, t)
	}
	return tools, nil
}
