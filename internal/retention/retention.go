// Package retention removes old uploads and generated subtitles.
package retention

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// Result summarizes a sweep.
type Result struct {
	Files int
	Bytes uint64
}

// Sweeper deletes regular files older than a maximum age from a set of directories.
type Sweeper struct {
	dirs   []string
	maxAge time.Duration
	now    func() time.Time
}

// NewSweeper creates a sweeper for dirs.
func NewSweeper(maxAge time.Duration, dirs ...string) *Sweeper {
	return &Sweeper{
		dirs:   dirs,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Sweep removes expired files. Subdirectories are left alone and missing
// directories are skipped.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result
	if s.maxAge <= 0 {
		return res, fmt.Errorf("max age must be positive, got %s", s.maxAge)
	}
	cutoff := s.now().Add(-s.maxAge)

	var errs []error
	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if !entry.Type().IsRegular() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
				continue
			}
			res.Files++
			res.Bytes += uint64(info.Size()) //nolint:gosec
			log.Debug("removed expired file", "path", path, "age", humanize.RelTime(info.ModTime(), s.now(), "old", "from now"))
		}
	}

	if res.Files > 0 {
		log.Info("retention sweep finished", "files", res.Files, "freed", humanize.Bytes(res.Bytes))
	}
	return res, errors.Join(errs...)
}

// Job adapts Sweep to the scheduler job signature.
func (s *Sweeper) Job(ctx context.Context) error {
	_, err := s.Sweep(ctx)
	return err
}
