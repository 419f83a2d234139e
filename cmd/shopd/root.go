package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the shopd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopd",
		Short: "E-commerce backend server",
		Long: `shopd serves the e-commerce HTTP API: signup, signin, password reset
and role-gated routes backed by MySQL, PostgreSQL or SQLite.

Configuration is read from an optional YAML file, SHOP_* environment
variables and command-line flags, in increasing order of precedence.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedAdminCmd())
	cmd.AddCommand(NewPurgeResetTokensCmd())

	return cmd
}
