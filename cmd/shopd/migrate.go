package main

import (
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Create or update the users and password_reset_tokens tables.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cmd.Println("Connecting to database...")
	gormDB, err := openDB(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB(gormDB)

	cmd.Println("Migrations completed successfully")
	return nil
}
