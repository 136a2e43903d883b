package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/aidir/internal/model"
	"github.com/nikbrunner/aidir/internal/picker"
	"github.com/nikbrunner/aidir/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Fuzzy search tool names and open the selected website",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		e, err := newEnv(ctx, envParams{})
		if err != nil {
			return err
		}
		defer e.close()
		if err := e.init(ctx); err != nil {
			return err
		}

		tools, err := e.loader.LoadFullCatalog(ctx)
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}

		results := search.FuzzySearchTools(tools, query)
		if len(results) == 0 {
			fmt.Printf("No tools found for '%s'\n", query)
			return nil
		}

		var selected *model.Tool
		if len(results) == 1 {
			selected = results[0].Tool
			fmt.Printf("Opening: %s\n", selected.Name)
		} else {
			finalModel, err := tea.NewProgram(picker.New(results, query), tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("running picker: %w", err)
			}
			finalPicker := finalModel.(picker.Picker)
			if finalPicker.Cancelled() {
				return nil
			}
			selected = finalPicker.SelectedTool()
		}

		if selected == nil {
			return nil
		}
		if selected.URL == "" {
			return fmt.Errorf("%s has no website", selected.Name)
		}
		return openURL(selected.URL)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
