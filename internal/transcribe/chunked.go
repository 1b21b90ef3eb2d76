package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ChunkedModel splits the audio into ChunkSize windows and recognizes them in parallel.
type ChunkedModel struct {
	engine      Engine
	splitter    Splitter
	concurrency int
	model       string
	language    string
}

// Name returns the model identifier.
func (m *ChunkedModel) Name() string {
	return m.model
}

// Language returns the language code the model was loaded for.
func (m *ChunkedModel) Language() string {
	return m.language
}

// Transcribe returns one segment per window, in window order.
func (m *ChunkedModel) Transcribe(ctx context.Context, audioPath string, opts Options, progress ProgressFunc) ([]Segment, error) {
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than 0")
	}
	if opts.SamplingRate <= 0 {
		return nil, fmt.Errorf("sampling rate must be greater than 0")
	}

	duration, err := m.splitter.Duration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe audio: %w", err)
	}

	chunk := time.Duration(opts.ChunkSize) * time.Second
	total := ChunkCount(duration, chunk)
	if total == 0 {
		return []Segment{}, nil
	}

	workDir, err := os.MkdirTemp("", "subgen-chunks-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}
	defer os.RemoveAll(workDir) //nolint:errcheck

	log.Info("transcribing audio", "path", audioPath, "duration", duration, "chunks", total, "model", m.model)

	segments := make([]Segment, total)
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i := range total {
		g.Go(func() error {
			dst := filepath.Join(workDir, fmt.Sprintf("chunk-%05d.wav", i))
			start := time.Duration(i) * chunk
			if err := m.splitter.ExtractSegment(ctx, audioPath, start, chunk, opts.SamplingRate, dst); err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}

			text, err := m.engine.Recognize(ctx, dst, Request{
				Model:        m.model,
				Language:     m.language,
				SamplingRate: opts.SamplingRate,
			})
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			segments[i] = Segment{Index: i, Text: strings.TrimSpace(text)}

			n := done.Add(1)
			if progress != nil {
				progress(int(n), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return segments, nil
}

// ChunkCount returns the number of windows needed to cover duration. A
// trailing partial window counts as a full one.
func ChunkCount(duration, chunk time.Duration) int {
	if duration <= 0 || chunk <= 0 {
		return 0
	}
	n := int(duration / chunk)
	if duration%chunk != 0 {
		n++
	}
	return n
}
