package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

type DatabaseType string

const (
	DatabaseTypeSQLite DatabaseType = "sqlite"
	DatabaseTypeMongo  DatabaseType = "mongo"
)

// UploadMode selects how the upload endpoint answers.
type UploadMode string

const (
	// UploadModeDownload runs the pipeline and answers with the subtitle file.
	UploadModeDownload UploadMode = "download"
	// UploadModeStream answers with newline delimited JSON progress events.
	UploadModeStream UploadMode = "stream"
)

type TranscriptionEngine string

const (
	EngineWhisperCpp TranscriptionEngine = "whisper.cpp"
	EngineOpenAI     TranscriptionEngine = "openai"
	EngineCommand    TranscriptionEngine = "command"
)

// Config holds the configuration for the subgen server and its dependencies.
type Config struct {
	// Listen is the address the server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// LogLevel is used when no --log-level flag is given.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// SessionKey is the key used to sign the session cookie.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SecureCookies marks the session cookie as https only.
	SecureCookies bool `yaml:"secure_cookies" mapstructure:"secure_cookies"`
	// UploadDir is the flat directory uploaded media is written to.
	UploadDir string `yaml:"upload_dir" mapstructure:"upload_dir"`
	// OutputDir is the flat directory generated subtitles are written to.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`

	// Database holds the credential store configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Auth holds the account configuration.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Upload holds the upload endpoint configuration.
	Upload *UploadConfig `yaml:"upload" mapstructure:"upload"`
	// Transcription holds the speech to text backend configuration.
	Transcription *TranscriptionConfig `yaml:"transcription" mapstructure:"transcription"`
	// Media holds the paths of the ffmpeg binaries.
	Media *MediaConfig `yaml:"media" mapstructure:"media"`
	// Bundle points to the processing bundle read on every upload.
	Bundle *BundleConfig `yaml:"bundle" mapstructure:"bundle"`
	// Cache holds the cache engine configuration used for job progress.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Cleanup holds the retention job configuration.
	Cleanup *CleanupConfig `yaml:"cleanup" mapstructure:"cleanup"`
	// Gravatar shows an avatar next to the username of users with an email.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// DatabaseConfig holds the credential store configuration.
type DatabaseConfig struct {
	// Type is either "sqlite" or "mongo".
	Type DatabaseType `yaml:"type" mapstructure:"type"`
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
	// MongoURI is the connection string of the mongo deployment.
	MongoURI string `yaml:"mongo_uri" mapstructure:"mongo_uri"`
	// MongoDatabase is the name of the mongo database.
	MongoDatabase string `yaml:"mongo_database" mapstructure:"mongo_database"`
	// MongoCollection is the name of the users collection.
	MongoCollection string `yaml:"mongo_collection" mapstructure:"mongo_collection"`
}

// AuthConfig holds the account configuration.
type AuthConfig struct {
	// TrackEmail enforces unique email addresses on signup.
	TrackEmail bool `yaml:"track_email" mapstructure:"track_email"`
	// BcryptCost is the cost passed to bcrypt when hashing new passwords.
	BcryptCost int `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
}

// UploadConfig holds the upload endpoint configuration.
type UploadConfig struct {
	Mode        UploadMode `yaml:"mode" mapstructure:"mode"`
	RequireAuth bool       `yaml:"require_auth" mapstructure:"require_auth"`
	// MaxSize is the maximum request body size in bytes.
	MaxSize int64 `yaml:"max_size" mapstructure:"max_size"`
	// AllowedExtensions is only enforced in stream mode.
	AllowedExtensions []string `yaml:"allowed_extensions" mapstructure:"allowed_extensions"`
	// ExposeErrors returns the raw processing error to the client.
	ExposeErrors bool `yaml:"expose_errors" mapstructure:"expose_errors"`
	// MaxDiskUsage rejects uploads while the upload filesystem is used above
	// this percentage. Zero disables the check.
	MaxDiskUsage float64 `yaml:"max_disk_usage" mapstructure:"max_disk_usage"`
}

// TranscriptionConfig holds the speech to text backend configuration.
type TranscriptionConfig struct {
	Engine TranscriptionEngine `yaml:"engine" mapstructure:"engine"`
	// URL is the base URL of the whisper.cpp server or the OpenAI compatible API.
	URL    string `yaml:"url" mapstructure:"url"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// ModelDir is the directory of the ggml models on the whisper.cpp server.
	ModelDir string `yaml:"model_dir" mapstructure:"model_dir"`
	// Binary is the whisper executable used by the command engine.
	Binary string `yaml:"binary" mapstructure:"binary"`
	// Concurrency is the number of chunks recognized in parallel.
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// MediaConfig holds the paths of the ffmpeg binaries.
type MediaConfig struct {
	FFmpegBinary  string `yaml:"ffmpeg_binary" mapstructure:"ffmpeg_binary"`
	FFprobeBinary string `yaml:"ffprobe_binary" mapstructure:"ffprobe_binary"`
}

// BundleConfig points to the processing bundle.
type BundleConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig holds the configuration for the cache engine.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the URL for the Redis cache if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// JobTTL is how long the last progress event of a job is kept.
	JobTTL time.Duration `yaml:"job_ttl" mapstructure:"job_ttl"`
}

// CleanupConfig holds the retention job configuration.
type CleanupConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Schedule is a cron expression with 5 fields.
	Schedule string `yaml:"schedule" mapstructure:"schedule"`
	// MaxAge is the age after which uploads and subtitles are deleted.
	MaxAge time.Duration `yaml:"max_age" mapstructure:"max_age"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is one of "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank".
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is one of "g", "pg", "r", "x".
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

var (
	gravatarDefaultImages = []string{"404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"}
	gravatarRatings       = []string{"g", "pg", "r", "x"}
)

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("SUBGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.subgen")
		v.AddConfigPath("/etc/subgen")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the SUBGEN_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:5000")
	v.SetDefault("log_level", "info")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 86400) // 24 hours
	v.SetDefault("secure_cookies", false)
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("output_dir", "./output")

	v.SetDefault("database.type", DatabaseTypeSQLite)
	v.SetDefault("database.path", "./data/subgen.db")
	v.SetDefault("database.mongo_uri", "mongodb://localhost:27017/")
	v.SetDefault("database.mongo_database", "userDB")
	v.SetDefault("database.mongo_collection", "users")

	v.SetDefault("auth.track_email", true)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("upload.mode", UploadModeDownload)
	v.SetDefault("upload.require_auth", true)
	v.SetDefault("upload.max_size", 100*1024*1024)
	v.SetDefault("upload.allowed_extensions", []string{"mp4", "avi", "mov", "mp3", "wav", "mkv"})
	v.SetDefault("upload.expose_errors", true)
	v.SetDefault("upload.max_disk_usage", 0)

	v.SetDefault("transcription.engine", EngineWhisperCpp)
	v.SetDefault("transcription.url", "http://127.0.0.1:8080")
	v.SetDefault("transcription.api_key", "")
	v.SetDefault("transcription.model_dir", "models")
	v.SetDefault("transcription.binary", "whisper")
	v.SetDefault("transcription.concurrency", 2)
	v.SetDefault("transcription.timeout", 30*time.Minute)

	v.SetDefault("media.ffmpeg_binary", "ffmpeg")
	v.SetDefault("media.ffprobe_binary", "ffprobe")

	v.SetDefault("bundle.path", "./conf/bundle.yml")

	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.job_ttl", time.Hour)

	v.SetDefault("cleanup.enabled", false)
	v.SetDefault("cleanup.schedule", "0 3 * * *")
	v.SetDefault("cleanup.max_age", 7*24*time.Hour)

	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 32)
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing subgen config")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.UploadDir == "" || c.OutputDir == "" {
		return fmt.Errorf("upload and output directories are required")
	}

	if c.Database == nil {
		return fmt.Errorf("missing database config")
	}
	switch c.Database.Type {
	case DatabaseTypeSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required when using sqlite")
		}
	case DatabaseTypeMongo:
		if c.Database.MongoURI == "" {
			return fmt.Errorf("mongo URI is required when using mongo")
		}
		if c.Database.MongoDatabase == "" || c.Database.MongoCollection == "" {
			return fmt.Errorf("mongo database and collection are required when using mongo")
		}
	default:
		return fmt.Errorf("unknown database type %q", c.Database.Type)
	}

	if c.Auth == nil {
		c.Auth = &AuthConfig{TrackEmail: true, BcryptCost: 10}
	}

	if c.Upload == nil {
		return fmt.Errorf("missing upload config")
	}
	if c.Upload.Mode != UploadModeDownload && c.Upload.Mode != UploadModeStream {
		return fmt.Errorf("upload mode must be %q or %q", UploadModeDownload, UploadModeStream)
	}
	if c.Upload.MaxDiskUsage < 0 || c.Upload.MaxDiskUsage > 100 {
		return fmt.Errorf("upload.max_disk_usage must be between 0 and 100")
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload max size must be greater than 0")
	}
	if c.Upload.Mode == UploadModeStream && len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("at least one allowed extension is required in stream mode")
	}

	if c.Transcription == nil {
		return fmt.Errorf("missing transcription config")
	}
	switch c.Transcription.Engine {
	case EngineWhisperCpp:
		if c.Transcription.URL == "" {
			return fmt.Errorf("transcription URL is required for the whisper.cpp engine")
		}
	case EngineOpenAI:
		if c.Transcription.URL == "" {
			return fmt.Errorf("transcription URL is required for the openai engine")
		}
		if c.Transcription.APIKey == "" {
			return fmt.Errorf("transcription API key is required for the openai engine")
		}
	case EngineCommand:
		if c.Transcription.Binary == "" {
			return fmt.Errorf("transcription binary is required for the command engine")
		}
	default:
		return fmt.Errorf("unknown transcription engine %q", c.Transcription.Engine)
	}
	if c.Transcription.Concurrency <= 0 {
		c.Transcription.Concurrency = 1
	}

	if c.Media == nil {
		c.Media = &MediaConfig{FFmpegBinary: "ffmpeg", FFprobeBinary: "ffprobe"}
	}

	if c.Bundle == nil || c.Bundle.Path == "" {
		return fmt.Errorf("bundle path is required")
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type:   CacheTypeMemory,
			JobTTL: time.Hour,
		}
	}

	if c.Cleanup != nil && c.Cleanup.Enabled {
		// Basic validation for cron format (5 fields)
		if len(strings.Fields(c.Cleanup.Schedule)) != 5 {
			return fmt.Errorf("cleanup schedule must be a valid cron expression with 5 fields (minute hour day month weekday)")
		}
		if c.Cleanup.MaxAge <= 0 {
			return fmt.Errorf("cleanup max age must be greater than 0")
		}
	}

	if c.Gravatar != nil && c.Gravatar.Enabled {
		if c.Gravatar.DefaultImage != "" && !lo.Contains(gravatarDefaultImages, c.Gravatar.DefaultImage) {
			return fmt.Errorf("invalid gravatar default image %q", c.Gravatar.DefaultImage)
		}
		if c.Gravatar.Rating != "" && !lo.Contains(gravatarRatings, c.Gravatar.Rating) {
			return fmt.Errorf("invalid gravatar rating %q", c.Gravatar.Rating)
		}
		if c.Gravatar.Size < 0 || c.Gravatar.Size > 2048 {
			return fmt.Errorf("gravatar size must be between 0 and 2048")
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.Transcription != nil {
		c.Transcription.URL = urlSanitize(c.Transcription.URL)
	}

	if c.Upload != nil {
		// extensions are compared lower case and without the leading dot
		c.Upload.AllowedExtensions = lo.Uniq(lo.Map(c.Upload.AllowedExtensions, func(ext string, _ int) string {
			return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		}))
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}
