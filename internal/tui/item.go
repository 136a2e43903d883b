package tui

import "github.com/nikbrunner/aidir/internal/model"

// Item is one row of the tool list.
type Item struct {
	Tool  model.Tool
	Saved bool
}

// ID returns the tool ID.
func (i Item) ID() string {
	return i.Tool.ID
}

// Title returns a display title for the item.
func (i Item) Title() string {
	if i.Tool.Name == "" {
		return i.Tool.ID
	}
	return i.Tool.Name
}

// newItems wraps tools, marking those in saved.
func newItems(tools []model.Tool, saved map[string]bool) []Item {
	items := make([]Item, len(tools))
	for i, t := range tools {
		items[i] = Item{Tool: t, Saved: saved[t.ID]}
	}
	return items
}
