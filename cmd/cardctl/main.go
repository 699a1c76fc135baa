package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cardquiz/internal/config"
	"cardquiz/internal/database"
)

var rootCmd = &cobra.Command{
	Use:   "cardctl",
	Short: "Operator tool for the cARd quiz backend",
	Long: `cardctl manages the quiz backend from the command line: backups,
catalog seeding, progress reports, session events and media uploads.

It reads the same environment variables as the server (DATABASE_TYPE,
DB_PATH, DATABASE_URL, RABBITMQ_URL, MINIO_ENDPOINT, ...).`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDatabase connects and migrates the configured database
func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
