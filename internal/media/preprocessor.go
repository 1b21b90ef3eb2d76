// Package media turns uploaded files into audio the transcription engines can read.
package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/subgen/internal/bundle"
)

// AudioExtractor strips the video track from a container.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, src, dst string, samplingRate int) error
}

// Preprocessor replaces video uploads with their extracted audio.
type Preprocessor struct {
	extractor AudioExtractor
}

// NewPreprocessor creates a new Preprocessor.
func NewPreprocessor(extractor AudioExtractor) *Preprocessor {
	return &Preprocessor{extractor: extractor}
}

// NeedsExtraction reports whether path is a video container according to the bundle.
func (p *Preprocessor) NeedsExtraction(path string, b *bundle.Bundle) bool {
	return b.IsVideo(path)
}

// Prepare returns the path of the audio to transcribe. Video files are
// extracted next to the source as <stem>.wav, everything else is returned unchanged.
func (p *Preprocessor) Prepare(ctx context.Context, path string, b *bundle.Bundle) (string, error) {
	if !p.NeedsExtraction(path, b) {
		return path, nil
	}

	dst := AudioPath(path)
	log.Info("extracting audio", "source", path, "target", dst)
	if err := p.extractor.ExtractAudio(ctx, path, dst, b.SamplingRate); err != nil {
		return "", fmt.Errorf("failed to extract audio from %s: %w", filepath.Base(path), err)
	}
	return dst, nil
}

// AudioPath returns the wav path used for an extracted video.
func AudioPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".wav"
}
