package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Prepare storage schema and search indexes",
		Long: `Initialize or update the configured storage backend.

For the sqlite backend this applies schema migrations; for the badger
backend it rebuilds the search indexes from stored records.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	slog.Info("Preparing storage", "backend", viper.GetString("storage.backend"))

	// initBackend runs migrations as part of opening the store.
	backend, err := initBackend(cmd.Context())
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := backend.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}

	slog.Info("Storage ready")
	return nil
}
