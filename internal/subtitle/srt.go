// Package subtitle serializes transcribed segments as SubRip files.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jon4hz/subgen/internal/transcribe"
)

// WriteSRT writes segments to path. Segment i covers [i*chunkSize, (i+1)*chunkSize)
// seconds, so chunkSize must be the value the segments were transcribed with.
func WriteSRT(path string, segments []transcribe.Segment, chunkSize int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("chunk size must be greater than 0")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("failed to create subtitle file: %w", err)
	}

	if err := Encode(f, segments, chunkSize); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Encode writes the SRT representation of segments to w. Empty segments are
// skipped and cue numbers stay contiguous.
func Encode(w io.Writer, segments []transcribe.Segment, chunkSize int) error {
	bw := bufio.NewWriter(w)
	chunk := time.Duration(chunkSize) * time.Second

	n := 0
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		n++
		start, end := seg.Window(chunk)
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", n, FormatTimestamp(start), FormatTimestamp(end), text); err != nil {
			return fmt.Errorf("failed to write cue %d: %w", n, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush subtitle file: %w", err)
	}
	return nil
}

// FormatTimestamp formats d as HH:MM:SS,mmm.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
