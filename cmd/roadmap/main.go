// Command roadmap serves the Roadmap settings page embedded in the Shopify admin.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Leo3030/roadmap-demo/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "roadmap",
	Short:         "Roadmap settings app for Shopify",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default $ROADMAP_CONFIG or ./config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, sessionCmd, flagsCmd, versionCmd)
}

func appConfig() config.AppConfig {
	return config.AppConfig{ConfigPath: configPath}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("roadmap: command failed")
		stop()
		os.Exit(1)
	}
}
