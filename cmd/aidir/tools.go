package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/aidir/internal/model"
)

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List the highest rated tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := newEnv(ctx, envParams{})
		if err != nil {
			return err
		}
		defer e.close()
		if err := e.init(ctx); err != nil {
			return err
		}

		tools := e.loader.PopularTools()
		if len(tools) == 0 {
			fmt.Printf("No tools rated %.1f or higher\n", e.cfg.Popular.MinRating)
			return nil
		}
		return printTools(os.Stdout, tools)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a tool with its overview, pricing and reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := newEnv(ctx, envParams{})
		if err != nil {
			return err
		}
		defer e.close()
		if err := e.init(ctx); err != nil {
			return err
		}

		tool, err := e.loader.ToolDetails(ctx, args[0])
		if err != nil {
			return fmt.Errorf("loading %s: %w", args[0], err)
		}
		if tool == nil {
			return fmt.Errorf("tool %s not found", args[0])
		}
		printDetails(os.Stdout, *tool)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(popularCmd)
	rootCmd.AddCommand(showCmd)
}

func formatRating(t model.Tool) string {
	if t.Rating == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *t.Rating)
}

func printTools(w io.Writer, tools []model.Tool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tRATING\tURL")
	for _, t := range tools {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.PrimaryCategory, formatRating(t), t.URL)
	}
	return tw.Flush()
}

func printDetails(w io.Writer, t model.Tool) {
	fmt.Fprintf(w, "%s (%s)\n", t.Name, t.ID)
	if cats := t.AllCategories(); len(cats) > 0 {
		fmt.Fprintf(w, "Categories: %s\n", strings.Join(cats, ", "))
	}
	fmt.Fprintf(w, "Rating: %s\n", formatRating(t))
	if t.URL != "" {
		fmt.Fprintf(w, "URL: %s\n", t.URL)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(t.Tags, ", "))
	}
	if t.Description != "" {
		fmt.Fprintf(w, "\n%s\n", t.Description)
	}
	if t.LongDescription != "" {
		fmt.Fprintf(w, "\nOverview\n  %s\n", t.LongDescription)
	}

	fmt.Fprintln(w, "\nPricing")
	if len(t.Pricing) == 0 {
		fmt.Fprintln(w, "  (no pricing info)")
	}
	for _, p := range t.Pricing {
		line := p.Name + ": " + p.Price
		if p.Billing != "" {
			line += " " + p.Billing
		}
		fmt.Fprintf(w, "  %s\n", line)
	}

	fmt.Fprintf(w, "\nReviews (%d)\n", len(t.Reviews))
	for _, r := range t.Reviews {
		rating := ""
		if r.Rating != nil {
			rating = fmt.Sprintf(" ★ %.1f", *r.Rating)
		}
		fmt.Fprintf(w, "  %s%s: %s\n", r.Author, rating, r.Comment)
	}
}
