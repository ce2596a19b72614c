package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TobiSchelling/SignalEngine/internal/metrics"
	"github.com/TobiSchelling/SignalEngine/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		rec := metrics.New()
		pipe, provider := buildPipeline(db, rec)

		srv := server.New(server.Options{
			Assessor: pipe,
			History:  db,
			Metrics:  rec,
			Info: server.Info{
				Database:     db.Describe(),
				AIProvider:   fmt.Sprintf("%s (%s)", provider.Name(), cfg.LLM.Model),
				APIKeyLoaded: cfg.APIKey() != "",
			},
			Logger: zap.L(),
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		return server.Serve(ctx, srv, fmt.Sprintf(":%d", port))
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}
