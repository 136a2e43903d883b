package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/aidir/internal/exporter"
	"github.com/nikbrunner/aidir/internal/importer"
	"github.com/nikbrunner/aidir/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import tools from a bookmarks HTML file or a JSON catalog dump",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening file: %w", err)
		}
		defer file.Close()

		tools, err := parseToolsFile(path, file)
		if err != nil {
			return err
		}

		e, err := newEnv(ctx, envParams{})
		if err != nil {
			return err
		}
		defer e.close()

		res, err := importer.Import(ctx, e.store, tools, e.logger)
		if err != nil {
			return fmt.Errorf("importing: %w", err)
		}

		fmt.Printf("Imported %d tools", res.Added)
		if res.Skipped > 0 {
			fmt.Printf(" (%d duplicates skipped)", res.Skipped)
		}
		fmt.Println()
		return nil
	},
}

func parseToolsFile(path string, r io.Reader) ([]model.Tool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		tools, err := importer.ParseJSONTools(r)
		if err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		return tools, nil
	default:
		tools, err := importer.ParseHTMLTools(r)
		if err != nil {
			return nil, fmt.Errorf("parsing HTML: %w", err)
		}
		return tools, nil
	}
}

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export the catalog as a bookmarks HTML file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var outputPath string
		if len(args) == 1 {
			outputPath = args[0]
		} else {
			var err error
			outputPath, err = exporter.DefaultExportPath()
			if err != nil {
				return fmt.Errorf("getting default export path: %w", err)
			}
		}

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

		snapshot := model.NewCatalog(tools)
		html := exporter.ExportHTML(tools)
		if err := os.WriteFile(outputPath, []byte(html), 0o644); err != nil {
			return fmt.Errorf("writing file: %w", err)
		}

		fmt.Printf("Exported %d tools, %d categories to %s\n",
			len(tools), len(snapshot.PrimaryCategories()), outputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}
