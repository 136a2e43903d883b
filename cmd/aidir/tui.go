package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nikbrunner/aidir/internal/catalog"
	"github.com/nikbrunner/aidir/internal/model"
	"github.com/nikbrunner/aidir/internal/tui"
)

// runTUI runs the full interactive TUI. The catalog loads in the
// background; its events reach the program through Send.
func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	bus := catalog.NewBus()

	e, err := newEnv(ctx, envParams{Bus: bus})
	if err != nil {
		return err
	}
	defer e.close()

	app := tui.NewApp(tui.AppParams{
		Context: ctx,
		Catalog: e.loader,
		Saved:   e.saved,
		UserID:  e.cfg.UserID,
		OpenURL: openURL,
		Cull:    cullParams(e),
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	sub := bus.Subscribe(func(ev catalog.Event) {
		p.Send(tui.CatalogEventMsg{Event: ev})
	})
	defer sub.Unsubscribe()

	go func() {
		if err := e.init(ctx); err != nil {
			// Already reported to the program as a failed ReadyEvent.
			return
		}
		err := e.loader.Subscribe(ctx, func(tools []model.Tool) {
			p.Send(tui.ToolsUpdatedMsg{Tools: tools})
		})
		if err != nil {
			e.logger.Error("live updates unavailable", zap.Error(err))
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running app: %w", err)
	}
	return nil
}
