package main

import (
	"github.com/Leo3030/roadmap-demo/internal/app"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Migrate(cmd.Context(), appConfig())
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	return app.RunServer(cmd.Context(), appConfig())
}
