package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/aidir/internal/model"
)

var saveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Save a tool for the configured user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := newEnv(ctx, envParams{})
		if err != nil {
			return err
		}
		defer e.close()
		userID, err := e.requireUser()
		if err != nil {
			return err
		}
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
		if err := e.saved.Save(ctx, userID, tool.ID); err != nil {
			return fmt.Errorf("saving %s: %w", tool.Name, err)
		}
		fmt.Printf("Saved %s\n", tool.Name)
		return nil
	},
}

var unsaveCmd = &cobra.Command{
	Use:   "unsave <id>",
	Short: "Remove a tool from the configured user's saved tools",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := newEnv(ctx, envParams{})
		if err != nil {
			return err
		}
		defer e.close()
		userID, err := e.requireUser()
		if err != nil {
			return err
		}

		if err := e.saved.Remove(ctx, userID, args[0]); err != nil {
			return fmt.Errorf("removing %s: %w", args[0], err)
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List the configured user's saved tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := newEnv(ctx, envParams{})
		if err != nil {
			return err
		}
		defer e.close()
		userID, err := e.requireUser()
		if err != nil {
			return err
		}
		if err := e.init(ctx); err != nil {
			return err
		}

		list, err := e.saved.List(ctx, userID)
		if err != nil {
			return fmt.Errorf("listing saved tools: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No saved tools")
			return nil
		}

		tools := make([]model.Tool, 0, len(list))
		for _, s := range list {
			if s.Tool != nil {
				tools = append(tools, *s.Tool)
			}
		}
		return printTools(os.Stdout, tools)
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(unsaveCmd)
	rootCmd.AddCommand(savedCmd)
}
