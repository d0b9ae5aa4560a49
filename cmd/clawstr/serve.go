package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/orchestrator"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/presenter"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/runstore"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the orchestrator HTTP API",
	Long: `Starts an HTTP server exposing service info, a health probe, the latest
run status, and an on-demand discovery endpoint.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")

		orch, err := orchestrator.New(orchestratorConfigFromViper())
		if err != nil {
			presenter.Error(err, "Invalid orchestrator configuration")
			os.Exit(1)
		}

		var runs server.RunSource
		if storePath := viper.GetString("store_path"); storePath != "" {
			store, err := runstore.New(ctx, storePath)
			if err != nil {
				presenter.Error(err, "Failed to open run store")
				os.Exit(1)
			}
			defer store.Close()
			runs = store
		}

		srv, err := server.NewServer(&server.ServerConfig{Host: host, Port: port}, orch, runs)
		if err != nil {
			presenter.Error(err, "Failed to create server")
			os.Exit(1)
		}

		presenter.Info("Serving orchestrator API... Press Ctrl+C to stop")
		if err := srv.Start(ctx); err != nil {
			presenter.Error(err, "Server stopped with error")
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().String("host", "localhost", "Host to bind the server to")
	serveCmd.Flags().Int("port", 8080, "Port to bind the server to")
}
