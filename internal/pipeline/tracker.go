package pipeline

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/subgen/internal/cache"
)

// ErrJobNotFound is returned when no event is known for a job.
var ErrJobNotFound = errors.New("job not found")

// Tracker keeps the latest event of every job.
type Tracker struct {
	cache *cache.PrefixedCache[Event]
}

// NewTracker creates a tracker on top of c.
func NewTracker(c *cache.PrefixedCache[Event]) *Tracker {
	return &Tracker{cache: c}
}

// Record stores e as the latest event of its job.
func (t *Tracker) Record(ctx context.Context, e Event) {
	if e.JobID == "" {
		return
	}
	if err := t.cache.Set(ctx, e.JobID, e); err != nil {
		log.Warn("failed to record job event", "job", e.JobID, "error", err)
	}
}

// Latest returns the most recent event of a job.
func (t *Tracker) Latest(ctx context.Context, id string) (Event, error) {
	e, err := t.cache.Get(ctx, id)
	if err != nil {
		return Event{}, ErrJobNotFound
	}
	return e, nil
}
