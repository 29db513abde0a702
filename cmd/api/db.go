package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/assetcatalog/backend/internal/models"
	"github.com/assetcatalog/backend/internal/services"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := models.InitDB(cfg)
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			logrus.Info("Migrations applied")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users and a draft asset",
		Long: `seed creates admin, owner and employee accounts plus one DRAFT
asset owned by the owner. Existing rows are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := models.InitDB(cfg)
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			return services.NewAdminService(db, cfg).Seed(cmd.Context())
		},
	}
}
