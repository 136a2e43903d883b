// Package tui is the terminal browser for the tool catalog.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nikbrunner/aidir/internal/catalog"
	"github.com/nikbrunner/aidir/internal/culler"
	"github.com/nikbrunner/aidir/internal/model"
	"github.com/nikbrunner/aidir/internal/search"
	"github.com/nikbrunner/aidir/internal/tui/layout"
)

// Catalog is the read side of the tool catalog.
type Catalog interface {
	AllTools() []model.Tool
	PopularTools() []model.Tool
	FilterTools(query string, categories []string) []model.Tool
	ToolDetails(ctx context.Context, toolID string) (*model.Tool, error)
}

// SavedStore persists a user's saved tools.
type SavedStore interface {
	Save(ctx context.Context, userID, toolID string) error
	Remove(ctx context.Context, userID, toolID string) error
	List(ctx context.Context, userID string) ([]model.SavedTool, error)
}

// App is the main bubbletea model for the catalog browser.
type App struct {
	ctx          context.Context
	catalog      Catalog
	saved        SavedStore
	userID       string
	openURL      func(url string) error
	copyText     func(text string) error
	cullParams   culler.Params
	keys         KeyMap
	styles       Styles
	layoutConfig layout.LayoutConfig

	mode      Mode
	browser   BrowserNav
	filter    FilterState
	recommend RecommendState
	cull      CullState

	details   map[string]*model.Tool // full detail fetches by tool ID
	loadingID string                 // tool whose details are in flight
	savedIDs  map[string]bool
	savedList []model.Tool

	messageText string
	messageType MessageType
	messageID   int

	// For gg command
	lastKeyWasG bool

	// Window dimensions
	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Context      context.Context        // optional, context.Background if nil
	Catalog      Catalog                // required
	Saved        SavedStore             // optional, saving disabled if nil
	UserID       string                 // optional, saving disabled if empty
	OpenURL      func(url string) error // optional
	CopyText     func(text string) error
	Cull         culler.Params
	Keys         *KeyMap              // optional, uses default if nil
	Styles       *Styles              // optional, uses default if nil
	LayoutConfig *layout.LayoutConfig // optional, uses default if nil
}

// NewApp creates a new App with the given parameters.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	layoutCfg := layout.DefaultConfig()
	if params.LayoutConfig != nil {
		layoutCfg = *params.LayoutConfig
	}

	ctx := params.Context
	if ctx == nil {
		ctx = context.Background()
	}

	app := App{
		ctx:          ctx,
		catalog:      params.Catalog,
		saved:        params.Saved,
		userID:       params.UserID,
		openURL:      params.OpenURL,
		copyText:     params.CopyText,
		cullParams:   params.Cull,
		keys:         keys,
		styles:       styles,
		layoutConfig: layoutCfg,
		mode:         ModeNormal,
		browser:      BrowserNav{Tab: TabPopular},
		filter:       NewFilterState(layoutCfg),
		recommend:    NewRecommendState(layoutCfg),
		details:      make(map[string]*model.Tool),
		savedIDs:     make(map[string]bool),
		width:        80,
		height:       24,
	}
	if app.copyText == nil {
		app.copyText = writeClipboard
	}

	app.refreshItems()
	return app
}

// WithDimensions returns a copy of the App sized to width x height.
func (a App) WithDimensions(width, height int) App {
	a.width = width
	a.height = height
	return a
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.browser.Cursor
}

// Mode returns the current interaction mode.
func (a App) Mode() Mode {
	return a.mode
}

// Tab returns the list currently shown.
func (a App) Tab() Tab {
	return a.browser.Tab
}

// Items returns the current list of items.
func (a App) Items() []Item {
	return a.browser.Items
}

// Message returns the status line text, "" when none.
func (a App) Message() string {
	return a.messageText
}

// FilterQuery returns the active filter query.
func (a App) FilterQuery() string {
	return a.filter.Query
}

// Category returns the active category filter, "" when none.
func (a App) Category() string {
	return a.filter.Category
}

// Recommendations returns the results of the last recommendation prompt.
func (a App) Recommendations() []search.Recommendation {
	return a.recommend.Results
}

// CullResults returns the non-healthy cull groups.
func (a App) CullResults() []CullGroup {
	return a.cull.Groups
}

// Details returns the fetched details of a tool, or nil if not loaded.
func (a App) Details(toolID string) *model.Tool {
	return a.details[toolID]
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	if !a.canSave() {
		return nil
	}
	return loadSavedCmd(a.ctx, a.saved, a.userID)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case CatalogEventMsg:
		return a, a.handleCatalogEvent(msg.Event)

	case ToolsUpdatedMsg:
		// Cached details may describe the previous snapshot.
		a.details = make(map[string]*model.Tool)
		a.refreshItems()
		return a, a.setMessage(fmt.Sprintf("catalog updated (%d tools)", len(msg.Tools)), MessageInfo)

	case detailsLoadedMsg:
		if msg.toolID == a.loadingID {
			a.loadingID = ""
		}
		if msg.err != nil {
			return a, a.setMessage("details: "+msg.err.Error(), MessageError)
		}
		if msg.tool == nil {
			return a, a.setMessage("tool no longer exists", MessageWarning)
		}
		a.details[msg.toolID] = msg.tool
		return a, nil

	case savedLoadedMsg:
		if msg.err != nil {
			return a, a.setMessage("saved tools: "+msg.err.Error(), MessageError)
		}
		a.applySaved(msg.saved)
		a.refreshItems()
		return a, nil

	case saveToggledMsg:
		if msg.err != nil {
			return a, a.setMessage(msg.err.Error(), MessageError)
		}
		text := "saved " + msg.name
		if msg.saved {
			a.savedIDs[msg.toolID] = true
		} else {
			delete(a.savedIDs, msg.toolID)
			text = "removed " + msg.name
		}
		a.refreshItems()
		return a, tea.Batch(a.setMessage(text, MessageSuccess), loadSavedCmd(a.ctx, a.saved, a.userID))

	case cullCompleteMsg:
		a.cull.Results = msg.results
		a.cull.Groups = groupCullResults(msg.results)
		a.cull.GroupCursor = 0
		a.cull.ItemCursor = 0
		if len(a.cull.Groups) == 0 {
			a.mode = ModeNormal
			return a, a.setMessage(fmt.Sprintf("all %d websites healthy", len(msg.results)), MessageSuccess)
		}
		a.mode = ModeCullResults
		return a, nil

	case statusMsg:
		return a, a.setMessage(msg.text, msg.kind)

	case clearMessageMsg:
		if msg.id == a.messageID {
			a.messageText = ""
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// Forward everything else (cursor blink) to the focused input.
	var cmd tea.Cmd
	switch a.mode {
	case ModeFilter:
		a.filter.Input, cmd = a.filter.Input.Update(msg)
	case ModeRecommend:
		a.recommend.Input, cmd = a.recommend.Input.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a App) View() string {
	return a.renderView()
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.mode {
	case ModeFilter:
		return a.handleFilterKey(msg)
	case ModeRecommend:
		return a.handleRecommendKey(msg)
	case ModeRecommendResults:
		return a.handleRecommendResultsKey(msg)
	case ModeCullLoading:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		return a, nil
	case ModeCullResults:
		return a.handleCullResultsKey(msg)
	case ModeHelp:
		switch msg.String() {
		case "?", "q", "esc":
			a.mode = ModeNormal
		}
		return a, nil
	}
	return a.handleNormalKey(msg)
}

func (a App) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.browser.Cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}

	// Reset g flag for any other key
	a.lastKeyWasG = false

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if len(a.browser.Items) > 0 && a.browser.Cursor < len(a.browser.Items)-1 {
			a.browser.Cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.browser.Cursor > 0 {
			a.browser.Cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(a.browser.Items) > 0 {
			a.browser.Cursor = len(a.browser.Items) - 1
		}

	case key.Matches(msg, a.keys.NextTab):
		a.switchTab((a.browser.Tab + 1) % tabCount)

	case key.Matches(msg, a.keys.PrevTab):
		a.switchTab((a.browser.Tab + tabCount - 1) % tabCount)

	case key.Matches(msg, a.keys.Details):
		return a, a.loadSelectedDetails()

	case key.Matches(msg, a.keys.Open):
		return a, a.openSelected()

	case key.Matches(msg, a.keys.YankURL):
		return a, a.yankSelected()

	case key.Matches(msg, a.keys.Save):
		return a, a.toggleSaveSelected()

	case key.Matches(msg, a.keys.Filter):
		a.mode = ModeFilter
		a.filter.Input.SetValue(a.filter.Query)
		a.filter.Input.CursorEnd()
		return a, a.filter.Input.Focus()

	case key.Matches(msg, a.keys.Category):
		a.filter.Category = nextCategory(a.baseTools(), a.filter.Category)
		a.browser.Cursor = 0
		a.refreshItems()

	case key.Matches(msg, a.keys.Clear):
		if a.filter.Active() {
			a.filter.Reset()
			a.browser.Cursor = 0
			a.refreshItems()
		}

	case key.Matches(msg, a.keys.Recommend):
		a.mode = ModeRecommend
		a.recommend.Reset()
		return a, a.recommend.Input.Focus()

	case key.Matches(msg, a.keys.Cull):
		return a, a.startCull()

	case key.Matches(msg, a.keys.Help):
		a.mode = ModeHelp
	}

	return a, nil
}

func (a App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		a.filter.Query = strings.TrimSpace(a.filter.Input.Value())
		a.filter.Input.Blur()
		a.mode = ModeNormal
		a.refreshItems()
		return a, nil

	case tea.KeyEsc:
		a.filter.Input.Reset()
		a.filter.Input.Blur()
		a.filter.Query = ""
		a.mode = ModeNormal
		a.browser.Cursor = 0
		a.refreshItems()
		return a, nil
	}

	var cmd tea.Cmd
	a.filter.Input, cmd = a.filter.Input.Update(msg)
	a.filter.Query = strings.TrimSpace(a.filter.Input.Value())
	a.browser.Cursor = 0
	a.refreshItems()
	return a, cmd
}

func (a App) handleRecommendKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.recommend.Reset()
		a.recommend.Input.Blur()
		a.mode = ModeNormal
		return a, nil

	case tea.KeyEnter:
		text := strings.TrimSpace(a.recommend.Input.Value())
		if text == "" {
			return a, a.setMessage("describe a task first", MessageWarning)
		}
		a.recommend.Results = search.Recommend(a.recommendPool(), text)
		a.recommend.Cursor = 0
		if len(a.recommend.Results) == 0 {
			return a, a.setMessage("no matching tools", MessageWarning)
		}
		a.recommend.Input.Blur()
		a.mode = ModeRecommendResults
		return a, nil
	}

	var cmd tea.Cmd
	a.recommend.Input, cmd = a.recommend.Input.Update(msg)
	return a, cmd
}

func (a App) handleRecommendResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Down):
		if a.recommend.Cursor < len(a.recommend.Results)-1 {
			a.recommend.Cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.recommend.Cursor > 0 {
			a.recommend.Cursor--
		}

	case msg.Type == tea.KeyEnter:
		rec := a.recommend.Results[a.recommend.Cursor]
		a.mode = ModeNormal
		a.recommend.Reset()
		a.focusTool(rec.ToolID)
		return a, a.loadSelectedDetails()

	case msg.Type == tea.KeyEsc:
		a.mode = ModeRecommend
		a.recommend.Results = nil
		return a, a.recommend.Input.Focus()

	case msg.String() == "q":
		a.recommend.Reset()
		a.mode = ModeNormal
	}
	return a, nil
}

func (a App) handleCullResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		a.cull.Reset()
		a.mode = ModeNormal

	case "l", "right", "tab":
		if a.cull.GroupCursor < len(a.cull.Groups)-1 {
			a.cull.GroupCursor++
			a.cull.ItemCursor = 0
		}

	case "h", "left", "shift+tab":
		if a.cull.GroupCursor > 0 {
			a.cull.GroupCursor--
			a.cull.ItemCursor = 0
		}

	case "j", "down":
		if g := a.cull.CurrentGroup(); g != nil && a.cull.ItemCursor < len(g.Results)-1 {
			a.cull.ItemCursor++
		}

	case "k", "up":
		if a.cull.ItemCursor > 0 {
			a.cull.ItemCursor--
		}

	case "o":
		if r := a.cull.CurrentItem(); r != nil {
			return a, a.openTool(*r.Tool)
		}
	}
	return a, nil
}

func (a *App) handleCatalogEvent(e catalog.Event) tea.Cmd {
	switch e := e.(type) {
	case catalog.ReadyEvent:
		a.refreshItems()
		if !e.Success {
			return a.setMessage(fmt.Sprintf("catalog unavailable: %v", e.Err), MessageError)
		}
	case catalog.AllToolsLoadedEvent:
		a.refreshItems()
		return a.setMessage(fmt.Sprintf("full catalog loaded (%d tools)", e.Count), MessageInfo)
	case catalog.ErrorEvent:
		return a.setMessage(fmt.Sprintf("live updates: %v", e.Err), MessageError)
	}
	return nil
}

// canSave reports whether saving is configured.
func (a App) canSave() bool {
	return a.saved != nil && a.userID != ""
}

// baseTools returns the unfiltered list of the current tab.
func (a App) baseTools() []model.Tool {
	switch a.browser.Tab {
	case TabAll:
		return a.catalog.AllTools()
	case TabSaved:
		return a.savedList
	default:
		return a.catalog.PopularTools()
	}
}

// refreshItems rebuilds the items slice for the current tab and filter.
func (a *App) refreshItems() {
	tools := a.baseTools()
	if a.filter.Active() {
		if a.browser.Tab == TabAll {
			tools = a.catalog.FilterTools(a.filter.Query, a.filter.Categories())
		} else {
			tools = search.Filter(tools, a.filter.Query, a.filter.Categories())
		}
	}
	a.browser.Items = newItems(tools, a.savedIDs)

	if a.browser.Cursor >= len(a.browser.Items) {
		a.browser.Cursor = len(a.browser.Items) - 1
	}
	if a.browser.Cursor < 0 {
		a.browser.Cursor = 0
	}
}

func (a *App) switchTab(tab Tab) {
	a.browser.Tab = tab
	a.browser.Cursor = 0
	a.filter.Category = ""
	a.refreshItems()
}

// focusTool shows the All tab unfiltered with the cursor on toolID.
func (a *App) focusTool(toolID string) {
	a.browser.Tab = TabAll
	a.filter.Reset()
	a.browser.Cursor = 0
	a.refreshItems()
	for i, item := range a.browser.Items {
		if item.ID() == toolID {
			a.browser.Cursor = i
			return
		}
	}
}

// selected returns the item under the cursor, or nil for an empty list.
func (a App) selected() *Item {
	if len(a.browser.Items) == 0 || a.browser.Cursor >= len(a.browser.Items) {
		return nil
	}
	return &a.browser.Items[a.browser.Cursor]
}

func (a *App) applySaved(entries []model.SavedTool) {
	a.savedIDs = make(map[string]bool, len(entries))
	a.savedList = a.savedList[:0]
	for _, e := range entries {
		a.savedIDs[e.ToolID] = true
		if e.Tool != nil {
			a.savedList = append(a.savedList, *e.Tool)
		}
	}
}

// recommendPool is the catalog recommendations are drawn from. Until the
// full catalog is hydrated only the popular tools are known.
func (a App) recommendPool() []model.Tool {
	if tools := a.catalog.AllTools(); len(tools) > 0 {
		return tools
	}
	return a.catalog.PopularTools()
}

func (a *App) loadSelectedDetails() tea.Cmd {
	item := a.selected()
	if item == nil {
		return nil
	}
	if _, ok := a.details[item.ID()]; ok {
		return nil
	}
	a.loadingID = item.ID()
	return loadDetailsCmd(a.ctx, a.catalog, item.ID())
}

func (a *App) openSelected() tea.Cmd {
	item := a.selected()
	if item == nil {
		return nil
	}
	return a.openTool(item.Tool)
}

func (a *App) openTool(t model.Tool) tea.Cmd {
	if t.URL == "" {
		return a.setMessage(t.Name+" has no website", MessageWarning)
	}
	if a.openURL == nil {
		return a.setMessage("opening links is not available", MessageWarning)
	}
	return openURLCmd(a.openURL, t.URL)
}

func (a *App) yankSelected() tea.Cmd {
	item := a.selected()
	if item == nil {
		return nil
	}
	if item.Tool.URL == "" {
		return a.setMessage(item.Title()+" has no website", MessageWarning)
	}
	return yankCmd(a.copyText, item.Tool.URL)
}

func (a *App) toggleSaveSelected() tea.Cmd {
	item := a.selected()
	if item == nil {
		return nil
	}
	if !a.canSave() {
		return a.setMessage("set user_id in the config to save tools", MessageWarning)
	}
	return toggleSaveCmd(a.ctx, a.saved, a.userID, item.Tool, !item.Saved)
}

func (a *App) startCull() tea.Cmd {
	tools := a.recommendPool()
	if len(tools) == 0 {
		return a.setMessage("no tools to check", MessageWarning)
	}
	a.cull.Reset()
	a.cull.Total = len(tools)
	a.mode = ModeCullLoading
	return cullCmd(a.ctx, tools, a.cullParams)
}

// nextCategory cycles "" -> first category -> ... -> last -> "".
func nextCategory(tools []model.Tool, current string) string {
	seen := make(map[string]bool)
	var categories []string
	for _, t := range tools {
		for _, c := range t.AllCategories() {
			if !seen[c] {
				seen[c] = true
				categories = append(categories, c)
			}
		}
	}
	if len(categories) == 0 {
		return ""
	}
	sort.Strings(categories)

	if current == "" {
		return categories[0]
	}
	for i, c := range categories {
		if c == current {
			if i == len(categories)-1 {
				return ""
			}
			return categories[i+1]
		}
	}
	return categories[0]
}
