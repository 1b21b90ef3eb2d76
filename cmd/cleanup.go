package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/jon4hz/subgen/internal/scheduler"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete old uploads and subtitles now",
	Long:  `Run the retention job once, independent of cleanup.enabled and cleanup.schedule.`,
	Example: `subgen cleanup --config config.yml
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyConfigLogLevel(cfg.LogLevel)

		sched, err := newScheduler(cfg)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop() //nolint: errcheck

		info, err := sched.RunJobAndWait(cmd.Context(), cleanupJobID)
		if err != nil {
			return fmt.Errorf("failed to run cleanup: %w", err)
		}
		if info.Status == scheduler.JobStatusFailed {
			return fmt.Errorf("cleanup failed: %s", info.LastError)
		}

		log.Info("cleanup finished", "max_age", cfg.Cleanup.MaxAge, "dirs", []string{cfg.UploadDir, cfg.OutputDir})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
