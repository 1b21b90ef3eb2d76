// Package pipeline turns an uploaded media file into a subtitle file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jon4hz/subgen/internal/bundle"
	"github.com/jon4hz/subgen/internal/transcribe"
)

const (
	DefaultLanguage  = "english"
	DefaultModelSize = "medium"
)

// Job is one upload being processed. It only lives for the duration of a request.
type Job struct {
	ID         string
	SourcePath string
	Language   string
	ModelSize  string
	OutputPath string
	Stage      Stage
	Progress   int
}

// NewJob creates a job for source writing its subtitles to outputDir/<stem>.srt.
// Empty language and model size fall back to the defaults.
func NewJob(source, outputDir, language, modelSize string) *Job {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	if strings.TrimSpace(modelSize) == "" {
		modelSize = DefaultModelSize
	}
	return &Job{
		ID:         uuid.NewString(),
		SourcePath: source,
		Language:   language,
		ModelSize:  modelSize,
		OutputPath: filepath.Join(outputDir, OutputName(source)),
	}
}

// OutputName returns the subtitle file name for an upload.
func OutputName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".srt"
}

// ProcessingError wraps any failure after the upload was accepted.
type ProcessingError struct {
	Stage Stage
	Err   error
}

func (e *ProcessingError) Error() string {
	return e.Err.Error()
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// BundleLoader provides the processing bundle for a run.
type BundleLoader interface {
	Load() (*bundle.Bundle, error)
}

// Preprocessor turns the upload into an audio file.
type Preprocessor interface {
	NeedsExtraction(path string, b *bundle.Bundle) bool
	Prepare(ctx context.Context, path string, b *bundle.Bundle) (string, error)
}

// Invoker resolves and loads transcription models.
type Invoker interface {
	Resolve(b *bundle.Bundle, size string) (string, error)
	Load(ctx context.Context, modelName, language string) (transcribe.Model, error)
}

// SubtitleWriter serializes segments timed with chunkSize.
type SubtitleWriter func(path string, segments []transcribe.Segment, chunkSize int) error

// Pipeline runs the upload stages in order.
type Pipeline struct {
	bundles      BundleLoader
	preprocessor Preprocessor
	invoker      Invoker
	writer       SubtitleWriter
	tracker      *Tracker
	now          func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTracker records every event in the tracker.
func WithTracker(t *Tracker) Option {
	return func(p *Pipeline) {
		p.tracker = t
	}
}

// New creates a new Pipeline.
func New(bundles BundleLoader, preprocessor Preprocessor, invoker Invoker, writer SubtitleWriter, opts ...Option) *Pipeline {
	p := &Pipeline{
		bundles:      bundles,
		preprocessor: preprocessor,
		invoker:      invoker,
		writer:       writer,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes job and reports every stage to emit. It returns
// transcribe.ErrUnknownModelSize before any work is done if the size tier is
// not configured, any later failure is returned as a *ProcessingError. In
// both cases a terminal error event has been emitted.
func (p *Pipeline) Run(ctx context.Context, job *Job, emit EventFunc) error {
	rep := newReporter(job, p.record(ctx, emit), p.now)
	logger := log.With("job", job.ID)

	err := p.run(ctx, job, rep, logger)
	if err != nil {
		stage := job.Stage
		logger.Error("processing failed", "stage", stage, "error", err)
		rep.fail(err)
		if errors.Is(err, transcribe.ErrUnknownModelSize) {
			return err
		}
		return &ProcessingError{Stage: stage, Err: err}
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, job *Job, rep *reporter, logger *log.Logger) error {
	rep.stage(StageUploaded, progressUploaded)

	// one bundle per run, so transcription and subtitle timing share the chunk size
	b, err := p.bundles.Load()
	if err != nil {
		return fmt.Errorf("failed to load bundle: %w", err)
	}
	if !b.Supported(job.SourcePath) {
		return fmt.Errorf("%w: %s", bundle.ErrUnsupportedMedia, filepath.Ext(job.SourcePath))
	}

	modelName, err := p.invoker.Resolve(b, job.ModelSize)
	if err != nil {
		return err
	}

	audioPath := job.SourcePath
	if p.preprocessor.NeedsExtraction(job.SourcePath, b) {
		rep.stage(StageExtracting, progressExtracting)
		audioPath, err = p.preprocessor.Prepare(ctx, job.SourcePath, b)
		if err != nil {
			return err
		}
		logger.Info("audio extracted", "path", audioPath)
	}

	rep.stage(StageInitializing, progressInitializing)
	model, err := p.invoker.Load(ctx, modelName, job.Language)
	if err != nil {
		return fmt.Errorf("failed to load model %s: %w", modelName, err)
	}
	logger.Info("using model", "model", modelName, "language", job.Language)

	rep.stage(StageTranscribing, progressTranscribing)
	segments, err := model.Transcribe(ctx, audioPath, transcribe.Options{
		SamplingRate: b.SamplingRate,
		ChunkSize:    b.ChunkSize,
	}, rep.chunk)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	rep.stage(StageWriting, progressWriting)
	if err := p.writer(job.OutputPath, segments, b.ChunkSize); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}
	logger.Info("subtitles saved", "path", job.OutputPath, "segments", len(segments))

	rep.complete(filepath.Base(job.OutputPath))
	return nil
}

// record forwards events to emit and stores them in the tracker.
func (p *Pipeline) record(ctx context.Context, emit EventFunc) EventFunc {
	if p.tracker == nil {
		return emit
	}
	return func(e Event) {
		p.tracker.Record(ctx, e)
		if emit != nil {
			emit(e)
		}
	}
}
