// Package policy decides whether new work may be accepted.
package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v3/disk"
)

// ErrDiskUsageExceeded is returned when the filesystem is fuller than allowed.
var ErrDiskUsageExceeded = errors.New("disk usage threshold exceeded")

// UsageFunc reports the usage of the filesystem holding path.
type UsageFunc func(ctx context.Context, path string) (*disk.UsageStat, error)

// DiskUsage rejects uploads once the filesystem holding a directory is
// used above a percentage.
type DiskUsage struct {
	threshold float64
	usage     UsageFunc
}

// NewDiskUsage creates a new DiskUsage policy. A threshold of zero disables it.
func NewDiskUsage(threshold float64, usage UsageFunc) *DiskUsage {
	if usage == nil {
		usage = disk.UsageWithContext
	}
	return &DiskUsage{
		threshold: threshold,
		usage:     usage,
	}
}

// Check returns ErrDiskUsageExceeded if path lives on a filesystem used at
// or above the threshold. Lookup errors are logged and let the upload through.
func (p *DiskUsage) Check(ctx context.Context, path string) error {
	if p == nil || p.threshold <= 0 {
		return nil
	}

	stat, err := p.usage(ctx, path)
	if err != nil {
		log.Warn("Failed to get disk usage", "path", path, "error", err)
		return nil
	}

	if stat.UsedPercent >= p.threshold {
		log.Warn("Disk usage threshold exceeded, rejecting upload",
			"path", path,
			"currentUsage", stat.UsedPercent,
			"threshold", p.threshold,
		)
		return fmt.Errorf("%w: %.1f%% used", ErrDiskUsageExceeded, stat.UsedPercent)
	}
	return nil
}
