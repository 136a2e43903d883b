package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nikbrunner/aidir/internal/catalog"
	"github.com/nikbrunner/aidir/internal/culler"
	"github.com/nikbrunner/aidir/internal/model"
)

// messageTimeout is how long a status line message stays visible.
const messageTimeout = 4 * time.Second

// CatalogEventMsg carries a catalog lifecycle event into the program.
type CatalogEventMsg struct {
	Event catalog.Event
}

// ToolsUpdatedMsg reports that a live subscription replaced the catalog.
type ToolsUpdatedMsg struct {
	Tools []model.Tool
}

type detailsLoadedMsg struct {
	toolID string
	tool   *model.Tool
	err    error
}

type savedLoadedMsg struct {
	saved []model.SavedTool
	err   error
}

type saveToggledMsg struct {
	toolID string
	name   string
	saved  bool
	err    error
}

type cullCompleteMsg struct {
	results []culler.Result
}

type statusMsg struct {
	text string
	kind MessageType
}

type clearMessageMsg struct {
	id int
}

// setMessage shows text on the status line and schedules its removal.
func (a *App) setMessage(text string, kind MessageType) tea.Cmd {
	a.messageID++
	a.messageText = text
	a.messageType = kind
	id := a.messageID
	return tea.Tick(messageTimeout, func(time.Time) tea.Msg {
		return clearMessageMsg{id: id}
	})
}

func loadDetailsCmd(ctx context.Context, c Catalog, toolID string) tea.Cmd {
	return func() tea.Msg {
		tool, err := c.ToolDetails(ctx, toolID)
		return detailsLoadedMsg{toolID: toolID, tool: tool, err: err}
	}
}

func loadSavedCmd(ctx context.Context, s SavedStore, userID string) tea.Cmd {
	if s == nil || userID == "" {
		return nil
	}
	return func() tea.Msg {
		saved, err := s.List(ctx, userID)
		return savedLoadedMsg{saved: saved, err: err}
	}
}

func toggleSaveCmd(ctx context.Context, s SavedStore, userID string, tool model.Tool, save bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if save {
			err = s.Save(ctx, userID, tool.ID)
		} else {
			err = s.Remove(ctx, userID, tool.ID)
		}
		return saveToggledMsg{toolID: tool.ID, name: tool.Name, saved: save, err: err}
	}
}

func cullCmd(ctx context.Context, tools []model.Tool, params culler.Params) tea.Cmd {
	return func() tea.Msg {
		return cullCompleteMsg{results: culler.CheckURLs(ctx, tools, params)}
	}
}

func openURLCmd(open func(string) error, url string) tea.Cmd {
	return func() tea.Msg {
		if err := open(url); err != nil {
			return statusMsg{text: "open: " + err.Error(), kind: MessageError}
		}
		return statusMsg{text: "opened " + url, kind: MessageInfo}
	}
}

func yankCmd(copyText func(string) error, url string) tea.Cmd {
	return func() tea.Msg {
		if err := copyText(url); err != nil {
			return statusMsg{text: "yank: " + err.Error(), kind: MessageError}
		}
		return statusMsg{text: "yanked " + url, kind: MessageSuccess}
	}
}

func writeClipboard(text string) error {
	return clipboard.WriteAll(text)
}
