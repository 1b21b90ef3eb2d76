package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect registered users",
}

var usersCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of registered users",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyConfigLogLevel(cfg.LogLevel)

		store, err := openStore(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close() //nolint: errcheck

		count, err := store.CountUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s registered users\n", humanize.Comma(count))
		return nil
	},
}

func init() {
	usersCmd.AddCommand(usersCountCmd)
	rootCmd.AddCommand(usersCmd)
}
