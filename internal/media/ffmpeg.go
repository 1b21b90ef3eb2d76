package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// CommandRunner runs an external command and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// FFmpeg wraps the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	ffmpegBinary  string
	ffprobeBinary string
	commandRunner CommandRunner
}

// NewFFmpeg creates a new FFmpeg wrapper.
func NewFFmpeg(ffmpegBinary, ffprobeBinary string) *FFmpeg {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	return &FFmpeg{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		commandRunner: execCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (f *FFmpeg) WithCommandRunner(runner CommandRunner) *FFmpeg {
	f.commandRunner = runner
	return f
}

// ExtractAudio writes the first audio stream of src to dst as mono 16 bit PCM wav.
func (f *FFmpeg) ExtractAudio(ctx context.Context, src, dst string, samplingRate int) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(samplingRate),
		"-c:a", "pcm_s16le",
		dst,
	}
	if _, err := f.commandRunner(ctx, f.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w", err)
	}
	return nil
}

// ExtractSegment writes the window [start, start+length) of src to dst, resampled to samplingRate.
func (f *FFmpeg) ExtractSegment(ctx context.Context, src string, start, length time.Duration, samplingRate int, dst string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(samplingRate),
		"-c:a", "pcm_s16le",
		dst,
	}
	if _, err := f.commandRunner(ctx, f.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("ffmpeg extract segment: %w", err)
	}
	return nil
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the container duration reported by ffprobe.
func (f *FFmpeg) Duration(ctx context.Context, src string) (time.Duration, error) {
	out, err := f.commandRunner(ctx, f.ffprobeBinary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		src,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	var result probeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return 0, fmt.Errorf("failed to decode ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", result.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	log.Debug("running command", "name", name, "args", strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", name, strings.TrimSpace(stderr.String()), err)
	}
	return stdout.Bytes(), nil
}
