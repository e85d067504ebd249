package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/amend/internal/server/endpoints"
)

var serverURL string

// newAPICmd builds "amend api" from the same registry the server mounts.
func newAPICmd() *cobra.Command {
	apiCmd := endpoints.NewRegistry().Command(func() string { return serverURL })
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://127.0.0.1:8480", "Server URL",
	)
	return apiCmd
}

func init() {
	rootCmd.AddCommand(newAPICmd())
}
