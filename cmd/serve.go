package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/subgen/internal/api"
	"github.com/jon4hz/subgen/internal/api/handler"
	"github.com/jon4hz/subgen/internal/auth"
	"github.com/jon4hz/subgen/internal/cache"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/jon4hz/subgen/internal/pipeline"
	"github.com/jon4hz/subgen/internal/retention"
	"github.com/jon4hz/subgen/internal/scheduler"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the subgen web server",
	Long:  `Start the web server that handles signup, login and subtitle generation for uploaded files.`,
	Example: `subgen serve --config config.yml
subgen serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfigLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, dir := range []string{cfg.UploadDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close() //nolint: errcheck

	manager := auth.NewManager(store,
		auth.WithEmailTracking(cfg.Auth.TrackEmail),
		auth.WithCost(cfg.Auth.BcryptCost),
	)

	jobCache, err := cache.New[pipeline.Event](cfg.Cache, "job:", cfg.Cache.JobTTL)
	if err != nil {
		return fmt.Errorf("failed to create job cache: %w", err)
	}
	tracker := pipeline.NewTracker(jobCache)
	log.Debug("job tracker ready", "cache", jobCache.GetType(), "ttl", cfg.Cache.JobTTL)

	p, err := newPipeline(cfg, pipeline.WithTracker(tracker))
	if err != nil {
		return err
	}

	var handlerOpts []handler.Option
	if cfg.Cleanup != nil && cfg.Cleanup.Enabled {
		sched, err := newScheduler(cfg)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop() //nolint: errcheck
		handlerOpts = append(handlerOpts, handler.WithJobs(sched))
	}

	server, err := api.New(cfg, manager, p, tracker, log.GetLevel() == log.DebugLevel, handlerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	log.Info("subgen started successfully", "upload_dir", cfg.UploadDir, "output_dir", cfg.OutputDir)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

const cleanupJobID = "cleanup"

// newScheduler registers the retention job.
func newScheduler(cfg *config.Config) (*scheduler.Scheduler, error) {
	if cfg.Cleanup == nil {
		return nil, fmt.Errorf("missing cleanup config")
	}

	sched, err := scheduler.New()
	if err != nil {
		return nil, err
	}

	sweeper := retention.NewSweeper(cfg.Cleanup.MaxAge, cfg.UploadDir, cfg.OutputDir)
	if err := sched.AddCronJob(cleanupJobID, "Delete old uploads and subtitles", cfg.Cleanup.Schedule, sweeper.Job); err != nil {
		return nil, fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	return sched, nil
}
