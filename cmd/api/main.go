// Package main is the asset catalog API binary.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/assetcatalog/backend/internal/config"
	"github.com/assetcatalog/backend/internal/logging"
	"github.com/assetcatalog/backend/pkg/validation"
)

var (
	version = "dev"

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "api",
		Short: "Internal software asset catalog",
		Long: `api runs the asset catalog HTTP service.

Without a subcommand it starts the server. Configuration is read from
the environment and an optional .env file in the working directory.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				logrus.Debug("No .env file found, using environment variables")
			}
			cfg = config.New()
			logging.Setup(cfg.Env, cfg.LogLevel)
			return validation.RegisterGinValidators()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newSeedCmd())

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
