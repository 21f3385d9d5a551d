package main

import (
	"fmt"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/pkg/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			return runMigrations(a)
		},
	}
}

func runMigrations(a *app) error {
	if err := database.MigrateModels(a.db, model.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	a.log.Info("Database migrations completed")
	return nil
}
