package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/aidir/internal/config"
)

var (
	cfgFile string
	backend string
)

var rootCmd = &cobra.Command{
	Use:   "aidir",
	Short: "Browse, search and save AI tools from the terminal",
	Long: `aidir browses a catalog of AI tools. Without a subcommand it opens the
interactive TUI: popular tools first, the full catalog once it has loaded,
and your saved tools when user_id is configured.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runTUI,
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "document store: sqlite, firestore or memory (overrides config)")
}
