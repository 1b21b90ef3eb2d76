package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/jon4hz/subgen/internal/pipeline"
	"github.com/spf13/cobra"
)

var transcribeFlags struct {
	Language  string
	ModelSize string
	OutputDir string
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>",
	Short: "Generate subtitles for a local file",
	Long:  `Run the subtitle pipeline for a single local video or audio file without starting the server.`,
	Example: `subgen transcribe clip.mp4
subgen transcribe interview.wav --lang german --model-size large --output-dir ./subs`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyConfigLogLevel(cfg.LogLevel)

		source, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if _, err := os.Stat(source); err != nil {
			return fmt.Errorf("cannot read %s: %w", args[0], err)
		}

		outputDir := transcribeFlags.OutputDir
		if outputDir == "" {
			outputDir = cfg.OutputDir
		}

		p, err := newPipeline(cfg)
		if err != nil {
			return err
		}

		job := pipeline.NewJob(source, outputDir, transcribeFlags.Language, transcribeFlags.ModelSize)
		err = p.Run(cmd.Context(), job, func(e pipeline.Event) {
			if e.Error != "" {
				return
			}
			log.Info(e.Message, "progress", fmt.Sprintf("%d%%", e.Progress))
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), job.OutputPath)
		return nil
	},
}

func init() {
	transcribeCmd.Flags().StringVarP(&transcribeFlags.Language, "lang", "l", pipeline.DefaultLanguage, "Spoken language of the file")
	transcribeCmd.Flags().StringVarP(&transcribeFlags.ModelSize, "model-size", "m", pipeline.DefaultModelSize, "Model size tier (tiny, small, medium, large)")
	transcribeCmd.Flags().StringVarP(&transcribeFlags.OutputDir, "output-dir", "o", "", "Directory for the subtitle file (default: output_dir from the config)")
	rootCmd.AddCommand(transcribeCmd)
}
