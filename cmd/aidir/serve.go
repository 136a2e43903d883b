package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nikbrunner/aidir/internal/model"
	"github.com/nikbrunner/aidir/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP with live WebSocket updates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := newEnv(ctx, envParams{
			LogToStderr: true,
			Registerer:  prometheus.DefaultRegisterer,
		})
		if err != nil {
			return err
		}
		defer e.close()
		if err := e.init(ctx); err != nil {
			return err
		}

		addr := e.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		hub := server.NewHub(e.logger)
		srv := server.New(server.Params{
			Addr:           addr,
			Catalog:        e.loader,
			Saved:          e.saved,
			Hub:            hub,
			Client:         e.cfg.Client,
			AllowedOrigins: e.cfg.Server.AllowedOrigins,
			Logger:         e.logger,
		})

		if err := e.loader.Subscribe(ctx, func(tools []model.Tool) {
			hub.Broadcast(tools)
		}); err != nil {
			e.logger.Warn("live updates unavailable", zap.Error(err))
		}

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
