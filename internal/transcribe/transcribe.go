// Package transcribe resolves model tiers and runs speech to text engines
// over fixed size audio windows.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/subgen/internal/bundle"
)

// ErrUnknownModelSize is returned when a size tier has no model in the bundle.
var ErrUnknownModelSize = errors.New("unknown model size")

// Segment is the text recognized in one chunk of audio.
type Segment struct {
	// Index is the position of the chunk the text was recognized in.
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Window returns the time range covered by the segment for the given chunk length.
func (s Segment) Window(chunk time.Duration) (start, end time.Duration) {
	start = time.Duration(s.Index) * chunk
	return start, start + chunk
}

// Options are the audio parameters shared with subtitle writing.
type Options struct {
	SamplingRate int
	// ChunkSize is the window length in seconds.
	ChunkSize int
}

// ProgressFunc is called after every recognized chunk. It may be called
// from several goroutines at once.
type ProgressFunc func(done, total int)

// Model transcribes an audio file into ordered segments.
type Model interface {
	Transcribe(ctx context.Context, audioPath string, opts Options, progress ProgressFunc) ([]Segment, error)
}

// Request is passed to an Engine for a single audio window.
type Request struct {
	Model        string
	Language     string
	SamplingRate int
}

// Engine recognizes the speech in a single short audio file.
type Engine interface {
	Recognize(ctx context.Context, audioPath string, req Request) (string, error)
	Name() string
}

// ModelLoader is implemented by engines that have to switch models before
// recognizing with them.
type ModelLoader interface {
	LoadModel(ctx context.Context, model string) error
}

// Splitter cuts audio into windows.
type Splitter interface {
	Duration(ctx context.Context, src string) (time.Duration, error)
	ExtractSegment(ctx context.Context, src string, start, length time.Duration, samplingRate int, dst string) error
}

// Invoker resolves size tiers to models and loads them.
type Invoker struct {
	engine      Engine
	splitter    Splitter
	concurrency int
}

// NewInvoker creates a new Invoker. concurrency bounds the number of windows
// recognized in parallel per model.
func NewInvoker(engine Engine, splitter Splitter, concurrency int) *Invoker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Invoker{
		engine:      engine,
		splitter:    splitter,
		concurrency: concurrency,
	}
}

// Resolve returns the model configured for size.
func (i *Invoker) Resolve(b *bundle.Bundle, size string) (string, error) {
	name, ok := b.ModelName(size)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModelSize, size)
	}
	return name, nil
}

// Load instantiates modelName for the target language.
func (i *Invoker) Load(ctx context.Context, modelName, language string) (Model, error) {
	if strings.TrimSpace(modelName) == "" {
		return nil, fmt.Errorf("model name is required")
	}
	code := LanguageCode(language)
	log.Debug("loading model", "engine", i.engine.Name(), "model", modelName, "language", code)
	if loader, ok := i.engine.(ModelLoader); ok {
		if err := loader.LoadModel(ctx, modelName); err != nil {
			return nil, err
		}
	}
	return &ChunkedModel{
		engine:      i.engine,
		splitter:    i.splitter,
		concurrency: i.concurrency,
		model:       modelName,
		language:    code,
	}, nil
}
