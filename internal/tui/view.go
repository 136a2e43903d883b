package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nikbrunner/aidir/internal/culler"
	"github.com/nikbrunner/aidir/internal/model"
	"github.com/nikbrunner/aidir/internal/tui/layout"
)

// renderView creates the list | detail view or the active modal.
func (a App) renderView() string {
	switch a.mode {
	case ModeHelp:
		return a.renderHelpOverlay()
	case ModeRecommend, ModeRecommendResults:
		return a.renderRecommendModal()
	case ModeCullLoading:
		return a.renderCullLoading()
	case ModeCullResults:
		return a.renderCullResults()
	}

	paneHeight := layout.CalculatePaneHeight(a.height, a.layoutConfig.Pane)
	split := layout.CalculateSplit(a.width, a.layoutConfig.Pane)

	columns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		a.renderListPane(split.ListWidth, paneHeight),
		a.renderDetailPane(split.DetailWidth, paneHeight),
	)

	content := a.styles.App.Render(
		lipgloss.JoinVertical(lipgloss.Left, a.renderTabBar(), columns, a.renderHelpBar()),
	)

	// Use Place to ensure exact terminal dimensions and prevent overflow
	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top, content)
}

// renderTabBar renders the list tabs with their sizes and the active category.
func (a App) renderTabBar() string {
	counts := map[Tab]int{
		TabPopular: len(a.catalog.PopularTools()),
		TabAll:     len(a.catalog.AllTools()),
		TabSaved:   len(a.savedList),
	}

	var parts []string
	for tab := TabPopular; tab < tabCount; tab++ {
		label := fmt.Sprintf("%s (%d)", tab, counts[tab])
		if tab == a.browser.Tab {
			parts = append(parts, a.styles.TabActive.Render(label))
		} else {
			parts = append(parts, a.styles.Tab.Render(label))
		}
	}
	if a.filter.Category != "" {
		parts = append(parts, a.styles.Category.Render("["+a.filter.Category+"]"))
	}
	return strings.Join(parts, "")
}

func (a App) renderListPane(width, height int) string {
	var content strings.Builder

	// Calculate header lines for filter
	headerLines := 0
	if a.mode == ModeFilter || a.filter.Query != "" {
		headerLines = 1
	}
	visibleHeight := layout.CalculateVisibleHeight(height, headerLines)
	itemWidth := layout.CalculateItemWidth(width, a.layoutConfig.Pane)

	if a.mode == ModeFilter {
		content.WriteString("/" + a.filter.Input.View() + "\n")
	} else if a.filter.Query != "" {
		content.WriteString(a.styles.Tag.Render("/"+a.filter.Query) + "\n")
	}

	items := a.browser.Items
	if len(items) == 0 {
		content.WriteString(a.styles.Empty.Render(a.emptyListText()))
	} else {
		offset := layout.CalculateViewportOffset(a.browser.Cursor, len(items), visibleHeight)
		for i, item := range items {
			if i < offset {
				continue
			}
			if i >= offset+visibleHeight {
				break
			}
			content.WriteString(a.renderItem(item, i == a.browser.Cursor, itemWidth) + "\n")
		}
	}

	return a.styles.PaneActive.
		Width(width).
		Height(height).
		Render(strings.TrimRight(content.String(), "\n"))
}

func (a App) emptyListText() string {
	switch {
	case a.filter.Active():
		return "(no matches)"
	case a.browser.Tab == TabAll:
		return "(loading full catalog...)"
	case a.browser.Tab == TabSaved && !a.canSave():
		return "(set user_id to save tools)"
	case a.browser.Tab == TabSaved:
		return "(no saved tools)"
	default:
		return "(empty)"
	}
}

// renderItem renders one list row: saved marker, name and right-aligned rating.
func (a App) renderItem(item Item, isCursor bool, maxWidth int) string {
	prefix := "  "
	if item.Saved {
		prefix = "* "
	}
	rating := ""
	if item.Tool.Rating != nil {
		rating = fmt.Sprintf("%.1f", *item.Tool.Rating)
	}

	nameWidth := maxWidth - len(prefix) - len(rating) - 1
	name, _ := layout.TruncateText(item.Title(), nameWidth, a.layoutConfig.Text)

	line := prefix + name
	gap := maxWidth - layout.VisibleLength(line) - len(rating)
	if gap < 1 {
		gap = 1
	}
	line += strings.Repeat(" ", gap) + rating

	if isCursor {
		return a.styles.ItemSelected.Render(line)
	}
	return a.styles.Item.Render(line)
}

func (a App) renderDetailPane(width, height int) string {
	itemWidth := layout.CalculateItemWidth(width, a.layoutConfig.Pane)

	var lines []string
	if item := a.selected(); item == nil {
		lines = append(lines, a.styles.Empty.Render("(nothing selected)"))
	} else {
		lines = a.detailLines(item.Tool, itemWidth)
	}

	visibleHeight := layout.CalculateVisibleHeight(height, 0)
	if len(lines) > visibleHeight {
		lines = lines[:visibleHeight]
	}

	return a.styles.Pane.
		Width(width).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

// detailLines renders the basic fields of t, followed by the fetched details
// when they are loaded.
func (a App) detailLines(t model.Tool, width int) []string {
	var lines []string
	add := func(s string) { lines = append(lines, s) }
	wrap := func(text string, style lipgloss.Style) {
		for _, l := range layout.WrapText(text, width) {
			add(style.Render(l))
		}
	}

	name, _ := layout.TruncateText(t.Name, width, a.layoutConfig.Text)
	add(a.styles.Title.Render(name))
	if cats := t.AllCategories(); len(cats) > 0 {
		c, _ := layout.TruncateText(strings.Join(cats, " · "), width, a.layoutConfig.Text)
		add(a.styles.Category.Render(c))
	}
	if t.Rating != nil {
		add(a.styles.Rating.Render(fmt.Sprintf("★ %.1f", *t.Rating)))
	}
	if t.URL != "" {
		url, _ := layout.TruncateText(t.URL, width, a.layoutConfig.Text)
		add(a.styles.URL.Render(url))
	}
	add("")
	wrap(t.Description, a.styles.Item.UnsetPaddingLeft())
	if len(t.Tags) > 0 {
		tags := make([]string, len(t.Tags))
		for i, tag := range t.Tags {
			tags[i] = "#" + tag
		}
		add("")
		wrap(strings.Join(tags, " "), a.styles.Tag)
	}

	full, ok := a.details[t.ID]
	switch {
	case ok:
		lines = append(lines, a.fullDetailLines(full, width)...)
	case a.loadingID == t.ID:
		add("")
		add(a.styles.Empty.Render("loading details..."))
	default:
		add("")
		add(a.styles.Empty.Render("l: load details"))
	}
	return lines
}

func (a App) fullDetailLines(t *model.Tool, width int) []string {
	var lines []string
	add := func(s string) { lines = append(lines, s) }
	wrap := func(text string, style lipgloss.Style) {
		for _, l := range layout.WrapText(text, width) {
			add(style.Render(l))
		}
	}

	if t.LongDescription != "" {
		add("")
		add(a.styles.Section.Render("Overview"))
		wrap(t.LongDescription, a.styles.Item.UnsetPaddingLeft())
	}

	add("")
	add(a.styles.Section.Render("Pricing"))
	if len(t.Pricing) == 0 {
		add(a.styles.Empty.Render("(no pricing info)"))
	}
	for _, p := range t.Pricing {
		line := p.Name
		if p.Price != "" {
			line += "  " + p.Price
		}
		if p.Billing != "" {
			line += " / " + p.Billing
		}
		wrap(line, a.styles.Item.UnsetPaddingLeft())
	}

	add("")
	add(a.styles.Section.Render(fmt.Sprintf("Reviews (%d)", len(t.Reviews))))
	for _, r := range t.Reviews {
		head := r.Author
		if head == "" {
			head = "anonymous"
		}
		if r.Rating != nil {
			head += fmt.Sprintf(" ★ %.1f", *r.Rating)
		}
		add(a.styles.Rating.Render(head))
		wrap(r.Comment, a.styles.URL)
	}
	return lines
}

func (a App) renderHelpBar() string {
	var lines []string

	// Line 1: Empty spacer OR message (message replaces the gap)
	if a.messageText != "" {
		lines = append(lines, a.renderMessageLine())
	} else {
		lines = append(lines, "")
	}

	if hints := a.renderHints(a.getContextualHints()); hints != "" {
		lines = append(lines, a.styles.HintLabel.Render("Keys  ")+hints)
	}

	return strings.Join(lines, "\n")
}

// renderMessageLine renders the styled message with prefix icon based on type.
func (a App) renderMessageLine() string {
	var msgStyle lipgloss.Style
	var prefix string

	switch a.messageType {
	case MessageError:
		msgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#CC3333", Dark: "#FF6666"}).
			Bold(true)
		prefix = "✗ "
	case MessageWarning:
		msgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#CC8800", Dark: "#FFAA00"}).
			Bold(true)
		prefix = "⚠ "
	case MessageSuccess:
		msgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#338833", Dark: "#66CC66"}).
			Bold(true)
		prefix = "✓ "
	default: // MessageInfo
		msgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}).
			Bold(true)
	}

	return msgStyle.Render(prefix + a.messageText)
}

func (a App) renderRecommendModal() string {
	width := layout.CalculateModalWidth(a.width, a.layoutConfig.Modal.DefaultWidthPercent, a.layoutConfig.Modal)

	var content strings.Builder
	content.WriteString(a.styles.Title.Render("Recommend a tool") + "\n\n")
	content.WriteString(a.recommend.Input.View() + "\n")

	if len(a.recommend.Results) > 0 {
		content.WriteString("\n")
		start, end := layout.CalculateVisibleListItems(
			a.layoutConfig.Modal.RecommendMaxVisible, a.recommend.Cursor, len(a.recommend.Results))
		for i := start; i < end; i++ {
			rec := a.recommend.Results[i]
			line := fmt.Sprintf("%d. %s", i+1, rec.Name)
			score := fmt.Sprintf("%.3f", rec.Score)
			gap := width - 6 - layout.VisibleLength(line) - len(score)
			if gap < 1 {
				gap = 1
			}
			line += strings.Repeat(" ", gap) + score
			if i == a.recommend.Cursor {
				content.WriteString(a.styles.ItemSelected.Render(line) + "\n")
			} else {
				content.WriteString(a.styles.Item.Render(line) + "\n")
			}
		}
	}

	if a.messageText != "" {
		content.WriteString("\n" + a.renderMessageLine() + "\n")
	}

	content.WriteString("\n" + a.renderHintsInline(a.getContextualHints().All()))

	modal := a.styles.PaneActive.Width(width).Render(content.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, modal)
}

func (a App) renderCullLoading() string {
	text := a.styles.Title.Render(fmt.Sprintf("Checking %d websites...", a.cull.Total))
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, text)
}

func (a App) renderCullResults() string {
	var content strings.Builder

	healthy := culler.Summarize(a.cull.Results)[culler.Healthy]
	content.WriteString(a.styles.Title.Render(
		fmt.Sprintf("Website check: %d of %d healthy", healthy, len(a.cull.Results))) + "\n\n")

	var tabs []string
	for i, g := range a.cull.Groups {
		label := fmt.Sprintf("%s (%d)", g.Label, len(g.Results))
		if i == a.cull.GroupCursor {
			tabs = append(tabs, a.styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, a.styles.Tab.Render(label))
		}
	}
	content.WriteString(strings.Join(tabs, "") + "\n\n")

	if group := a.cull.CurrentGroup(); group != nil {
		maxVisible := layout.CalculateVisibleHeight(a.height, 8)
		start, end := layout.CalculateVisibleListItems(maxVisible, a.cull.ItemCursor, len(group.Results))
		for i := start; i < end; i++ {
			r := group.Results[i]
			line := r.Tool.Name
			switch {
			case r.StatusCode != 0:
				line += fmt.Sprintf("  %d", r.StatusCode)
			case r.Error != "":
				line += "  " + r.Error
			}
			if r.Tool.URL != "" {
				line += "  " + a.styles.URL.Render(r.Tool.URL)
			}
			if i == a.cull.ItemCursor {
				content.WriteString(a.styles.ItemSelected.Render(line) + "\n")
			} else {
				content.WriteString(a.styles.Item.Render(line) + "\n")
			}
		}
	}

	content.WriteString("\n" + a.renderHintsInline(a.getContextualHints().All()))

	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Left,
		lipgloss.Top,
		lipgloss.NewStyle().Padding(1, 2).Render(content.String()),
	)
}

func (a App) renderHelpOverlay() string {
	// Brutalist style: no border, just raw columns
	modalStyle := lipgloss.NewStyle().
		Padding(1, 2)

	var left strings.Builder
	left.WriteString(a.styles.Title.Render("nav") + "\n")
	left.WriteString("j/k        move\n")
	left.WriteString("gg         top\n")
	left.WriteString("G          bottom\n")
	left.WriteString("tab/L      next list\n")
	left.WriteString("shift+tab  prev list\n")
	left.WriteString("\n")
	left.WriteString(a.styles.Title.Render("narrow") + "\n")
	left.WriteString("/          filter\n")
	left.WriteString("c          category\n")
	left.WriteString("esc        clear\n")

	var right strings.Builder
	right.WriteString(a.styles.Title.Render("tool") + "\n")
	right.WriteString("l/enter  details\n")
	right.WriteString("o        open website\n")
	right.WriteString("Y        yank url\n")
	right.WriteString("s        save/unsave\n")
	right.WriteString("\n")
	right.WriteString(a.styles.Title.Render("more") + "\n")
	right.WriteString("r        recommend\n")
	right.WriteString("C        check websites\n")
	right.WriteString("\n")
	right.WriteString(a.styles.Help.Render("[?/q/esc] close"))

	leftCol := lipgloss.NewStyle().Width(a.layoutConfig.Modal.HelpLeftColumnWidth).Render(left.String())
	cols := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, "  ", right.String())

	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Left,
		lipgloss.Top,
		modalStyle.Render(cols),
	)
}
