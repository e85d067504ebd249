package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/amend/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the amend server",
	Long: `Start the amend HTTP server.

The server exposes the correction agent over HTTP along with prompt
overrides, recorded LLM calls and settings. Edits to the config file are
picked up while running; provider changes apply to the next request.

Examples:
  amend serve                    # Start on server.host:server.port (127.0.0.1:8480)
  amend serve --port 3000        # Start on custom port
  amend serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}

		cfg := services.ConfigManager.Get().Server
		if cmd.Flags().Changed("host") {
			cfg.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}

		if len(services.Registry.ListLLM()) == 0 {
			services.Logger.Warn("no LLM provider configured; correction endpoints will return 503 until an API key is set")
		}

		srv, err := server.New(server.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Services: services,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (default: server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 8480, "Port to listen on (default: server.port)")

	rootCmd.AddCommand(serveCmd)
}
