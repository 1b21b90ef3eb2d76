// Package bundle loads the processing bundle: the media formats, the model
// names per size tier and the audio parameters shared by transcription and
// subtitle writing.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// ErrUnsupportedMedia is returned for files in neither the video nor the audio formats.
var ErrUnsupportedMedia = errors.New("unsupported media format")

// Bundle is read once per upload and never modified afterwards.
type Bundle struct {
	VideoFormats []string
	AudioFormats []string
	// ModelNames maps a size tier (e.g. "medium") to a concrete model identifier.
	ModelNames map[string]string
	// SamplingRate is the audio sampling rate in Hz.
	SamplingRate int
	// ChunkSize is the window in seconds used for transcription and subtitle timing.
	ChunkSize int
}

type rawBundle struct {
	SupportedMediaFormats struct {
		Video []string `mapstructure:"video"`
		Audio []string `mapstructure:"audio"`
	} `mapstructure:"supported_media_formats"`
	ModelNames map[string]string `mapstructure:"model_names"`
	Processing struct {
		SamplingRate int `mapstructure:"sampling_rate"`
		ChunkSize    int `mapstructure:"chunk_size"`
	} `mapstructure:"processing"`
}

// Loader reads the bundle file.
type Loader struct {
	path string
}

// NewLoader creates a loader for the bundle at path. A missing file is not
// an error, the built in defaults are used instead.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the bundle from disk. Every call builds a fresh viper instance,
// so edits to the file apply to the next upload.
func (l *Loader) Load() (*Bundle, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("SUBGEN_BUNDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.path != "" {
		if _, err := os.Stat(l.path); err == nil {
			v.SetConfigFile(l.path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read bundle: %w", err)
			}
		} else if errors.Is(err, os.ErrNotExist) {
			log.Debug("bundle file not found, using defaults", "path", l.path)
		} else {
			return nil, fmt.Errorf("failed to stat bundle: %w", err)
		}
	}

	var raw rawBundle
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bundle: %w", err)
	}

	b := &Bundle{
		VideoFormats: normalizeFormats(raw.SupportedMediaFormats.Video),
		AudioFormats: normalizeFormats(raw.SupportedMediaFormats.Audio),
		ModelNames:   make(map[string]string, len(raw.ModelNames)),
		SamplingRate: raw.Processing.SamplingRate,
		ChunkSize:    raw.Processing.ChunkSize,
	}
	for size, name := range raw.ModelNames {
		b.ModelNames[strings.ToLower(size)] = name
	}

	if err := validate(b); err != nil {
		return nil, err
	}
	return b, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("supported_media_formats.video", []string{".mp4", ".avi", ".mov", ".mkv", ".webm"})
	v.SetDefault("supported_media_formats.audio", []string{".mp3", ".wav", ".flac", ".m4a", ".ogg"})
	v.SetDefault("model_names", map[string]string{
		"tiny":   "tiny",
		"small":  "small",
		"medium": "medium",
		"large":  "large-v3",
	})
	v.SetDefault("processing.sampling_rate", 16000)
	v.SetDefault("processing.chunk_size", 5)
}

func validate(b *Bundle) error {
	if b.SamplingRate <= 0 {
		return fmt.Errorf("sampling rate must be greater than 0")
	}
	if b.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be greater than 0")
	}
	if len(b.ModelNames) == 0 {
		return fmt.Errorf("at least one model name is required")
	}
	return nil
}

// normalizeFormats lower cases the extensions and makes sure they start with a dot.
func normalizeFormats(formats []string) []string {
	return lo.Uniq(lo.FilterMap(formats, func(f string, _ int) (string, bool) {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			return "", false
		}
		if !strings.HasPrefix(f, ".") {
			f = "." + f
		}
		return f, true
	}))
}

// IsVideo reports whether the extension of path is one of the video formats.
func (b *Bundle) IsVideo(path string) bool {
	return lo.Contains(b.VideoFormats, strings.ToLower(filepath.Ext(path)))
}

// Supported reports whether path is a video or audio format of the bundle.
// A bundle without any formats accepts everything.
func (b *Bundle) Supported(path string) bool {
	if len(b.VideoFormats) == 0 && len(b.AudioFormats) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	return lo.Contains(b.VideoFormats, ext) || lo.Contains(b.AudioFormats, ext)
}

// ModelName returns the model configured for a size tier.
func (b *Bundle) ModelName(size string) (string, bool) {
	name, ok := b.ModelNames[strings.ToLower(strings.TrimSpace(size))]
	return name, ok
}
