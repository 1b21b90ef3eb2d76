package transcribe

import (
	"fmt"

	"github.com/jon4hz/subgen/internal/config"
)

// NewEngine creates the engine selected in the configuration.
func NewEngine(cfg *config.TranscriptionConfig) (Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("transcription config is required")
	}

	switch cfg.Engine {
	case config.EngineWhisperCpp:
		return NewWhisperCppEngine(cfg.URL, cfg.ModelDir, cfg.Timeout), nil
	case config.EngineOpenAI:
		return NewOpenAIEngine(cfg.URL, cfg.APIKey, cfg.Timeout), nil
	case config.EngineCommand:
		return NewCommandEngine(cfg.Binary), nil
	default:
		return nil, fmt.Errorf("unknown transcription engine %q", cfg.Engine)
	}
}
