package cmd

import (
	"fmt"

	"github.com/jon4hz/subgen/internal/bundle"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/jon4hz/subgen/internal/media"
	"github.com/jon4hz/subgen/internal/pipeline"
	"github.com/jon4hz/subgen/internal/subtitle"
	"github.com/jon4hz/subgen/internal/transcribe"
)

// newPipeline wires ffmpeg, the configured speech to text engine and the
// bundle loader into an upload pipeline.
func newPipeline(cfg *config.Config, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	engine, err := transcribe.NewEngine(cfg.Transcription)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription engine: %w", err)
	}

	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegBinary, cfg.Media.FFprobeBinary)
	invoker := transcribe.NewInvoker(engine, ffmpeg, cfg.Transcription.Concurrency)

	return pipeline.New(
		bundle.NewLoader(cfg.Bundle.Path),
		media.NewPreprocessor(ffmpeg),
		invoker,
		subtitle.WriteSRT,
		opts...,
	), nil
}
