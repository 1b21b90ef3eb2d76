package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jon4hz/subgen/internal/config"
	"github.com/jon4hz/subgen/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_RunsCleanup(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		UploadDir: filepath.Join(dir, "uploads"),
		OutputDir: filepath.Join(dir, "output"),
		Cleanup: &config.CleanupConfig{
			Schedule: "0 3 * * *",
			MaxAge:   time.Hour,
		},
	}
	require.NoError(t, os.MkdirAll(cfg.UploadDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))

	old := filepath.Join(cfg.UploadDir, "old.mp4")
	fresh := filepath.Join(cfg.OutputDir, "fresh.srt")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("1\n"), 0o644))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	sched, err := newScheduler(cfg)
	require.NoError(t, err)
	sched.Start()
	defer sched.Stop() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	info, err := sched.RunJobAndWait(ctx, cleanupJobID)
	require.NoError(t, err)
	assert.Equal(t, scheduler.JobStatusCompleted, info.Status)

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestNewScheduler_MissingConfig(t *testing.T) {
	_, err := newScheduler(&config.Config{})
	assert.Error(t, err)
}
