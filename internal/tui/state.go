package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/nikbrunner/aidir/internal/culler"
	"github.com/nikbrunner/aidir/internal/search"
	"github.com/nikbrunner/aidir/internal/tui/layout"
)

// Mode is the current interaction mode of the App.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
	ModeRecommend
	ModeRecommendResults
	ModeCullLoading
	ModeCullResults
	ModeHelp
)

// Tab selects which tool list the browser shows.
type Tab int

const (
	TabPopular Tab = iota
	TabAll
	TabSaved
	tabCount
)

// String returns the tab label.
func (t Tab) String() string {
	switch t {
	case TabPopular:
		return "Popular"
	case TabAll:
		return "All"
	case TabSaved:
		return "Saved"
	default:
		return "?"
	}
}

// MessageType controls how the status line is styled.
type MessageType int

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

// BrowserNav holds the tool list navigation state.
type BrowserNav struct {
	Tab    Tab
	Cursor int
	Items  []Item
}

// FilterState holds the narrowing applied to the current list.
type FilterState struct {
	Input    textinput.Model // Filter input
	Query    string          // Active query (persists after closing filter)
	Category string          // Active category, "" = any
}

// NewFilterState creates a FilterState with an initialized input.
func NewFilterState(cfg layout.LayoutConfig) FilterState {
	input := textinput.New()
	input.Placeholder = "Filter..."
	input.CharLimit = cfg.Input.FilterCharLimit
	input.Width = cfg.Input.FilterWidth
	return FilterState{Input: input}
}

// Active reports whether any narrowing is applied.
func (f *FilterState) Active() bool {
	return f.Query != "" || f.Category != ""
}

// Categories returns the category filter as the list Filter expects.
func (f *FilterState) Categories() []string {
	if f.Category == "" {
		return nil
	}
	return []string{f.Category}
}

// Reset clears the query and the category.
func (f *FilterState) Reset() {
	f.Input.Reset()
	f.Query = ""
	f.Category = ""
}

// RecommendState holds the free-text recommendation prompt and its results.
type RecommendState struct {
	Input   textinput.Model
	Results []search.Recommendation
	Cursor  int
}

// NewRecommendState creates a RecommendState with an initialized input.
func NewRecommendState(cfg layout.LayoutConfig) RecommendState {
	input := textinput.New()
	input.Placeholder = "Describe what you want to do..."
	input.CharLimit = cfg.Input.RecommendCharLimit
	input.Width = cfg.Input.RecommendWidth
	return RecommendState{Input: input}
}

// Reset clears the prompt and results.
func (r *RecommendState) Reset() {
	r.Input.Reset()
	r.Results = nil
	r.Cursor = 0
}

// CullState holds state for the website check.
type CullState struct {
	Results     []culler.Result // Raw results from URL check
	Groups      []CullGroup     // Non-healthy results grouped by status
	GroupCursor int
	ItemCursor  int
	Total       int // Tools being checked
}

// CullGroup is one status bucket of cull results.
type CullGroup struct {
	Label   string
	Status  culler.Status
	Results []culler.Result
}

// Reset clears all cull state.
func (c *CullState) Reset() {
	c.Results = nil
	c.Groups = nil
	c.GroupCursor = 0
	c.ItemCursor = 0
	c.Total = 0
}

// CurrentGroup returns the currently selected group, or nil if none.
func (c *CullState) CurrentGroup() *CullGroup {
	if len(c.Groups) == 0 || c.GroupCursor >= len(c.Groups) {
		return nil
	}
	return &c.Groups[c.GroupCursor]
}

// CurrentItem returns the currently selected result in the current group, or nil if none.
func (c *CullState) CurrentItem() *culler.Result {
	group := c.CurrentGroup()
	if group == nil || len(group.Results) == 0 || c.ItemCursor >= len(group.Results) {
		return nil
	}
	return &group.Results[c.ItemCursor]
}

// groupCullResults buckets non-healthy results in a fixed status order.
func groupCullResults(results []culler.Result) []CullGroup {
	order := []struct {
		status culler.Status
		label  string
	}{
		{culler.Dead, "DEAD"},
		{culler.Unreachable, "UNREACHABLE"},
		{culler.NoURL, "NO URL"},
	}

	var groups []CullGroup
	for _, o := range order {
		var bucket []culler.Result
		for _, r := range results {
			if r.Status == o.status {
				bucket = append(bucket, r)
			}
		}
		if len(bucket) > 0 {
			groups = append(groups, CullGroup{Label: o.label, Status: o.status, Results: bucket})
		}
	}
	return groups
}
