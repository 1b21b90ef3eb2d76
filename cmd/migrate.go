package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Create or update the sqlite schema, or the mongo indexes, of the configured credential store.`,
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

		log.Info("Database migrations completed successfully", "type", cfg.Database.Type)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
