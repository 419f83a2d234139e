package main

import (
	"github.com/spf13/cobra"

	"github.com/i-yashvi/E-Commerce-Backend/internal/cache"
	"github.com/i-yashvi/E-Commerce-Backend/internal/metrics"
)

// NewPurgeResetTokensCmd creates the purge-reset-tokens subcommand.
func NewPurgeResetTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-reset-tokens",
		Short: "Delete used and expired password reset tokens",
		Long: `Delete password reset tokens that can no longer be redeemed because they
were used or their window has passed. Safe to run from cron.`,
		RunE: runPurgeResetTokens,
	}
}

func runPurgeResetTokens(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	gormDB, err := openDB(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB(gormDB)

	deps, err := newStack(cfg, gormDB, cache.New("", "", 0), (*metrics.Metrics)(nil), logger)
	if err != nil {
		return err
	}

	n, err := deps.auth.PurgeResetTokens(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Deleted %d reset tokens\n", n)
	return nil
}
