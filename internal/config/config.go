// Package config loads the service configuration from an optional config
// file, RESUME_GUARD_* environment variables and defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonathan/resume-guard/internal/types"
)

// EnvPrefix is prepended to every environment key, e.g. RESUME_GUARD_PORT.
const EnvPrefix = "RESUME_GUARD"

// Store drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the full service configuration.
type Config struct {
	Port      int             `mapstructure:"port"`
	Store     StoreConfig     `mapstructure:"store"`
	Evidence  EvidenceConfig  `mapstructure:"evidence"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Events    EventsConfig    `mapstructure:"events"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Log       LogConfig       `mapstructure:"log"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// StoreConfig selects where versions and overrides are kept.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	DatabaseURL string `mapstructure:"database_url"`
	SQLitePath  string `mapstructure:"sqlite_path"`
}

// EvidenceConfig points at a retrieval service or a local folder of notes.
// With neither set, scoring runs without retrieval evidence.
type EvidenceConfig struct {
	URL     string        `mapstructure:"url"`
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
	TopK    int           `mapstructure:"top_k"`
}

// LLMConfig enables bullet rewrites and, optionally, model-based JD skill
// extraction. Both are off without an API key.
type LLMConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ExtractSkills bool          `mapstructure:"extract_skills"`
}

type FetchConfig struct {
	UseBrowser bool `mapstructure:"use_browser"`
}

// EventsConfig publishes commit notifications when AMQPURL is set.
type EventsConfig struct {
	AMQPURL  string        `mapstructure:"amqp_url"`
	Exchange string        `mapstructure:"exchange"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ArchiveConfig copies committed versions to S3 when S3Bucket is set.
type ArchiveConfig struct {
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3Prefix    string `mapstructure:"s3_prefix"`
	AccessKeyID string `mapstructure:"access_key_id"`
	SecretKey   string `mapstructure:"secret_access_key"`
	// Timeout bounds one upload after a commit.
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// DefaultsConfig holds request defaults.
type DefaultsConfig struct {
	TruthMode  string `mapstructure:"truth_mode"`
	TopNSkills int    `mapstructure:"top_n_skills"`
}

type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DefaultLimit  int           `mapstructure:"default_limit"`
	DefaultWindow time.Duration `mapstructure:"default_window"`
	Whitelist     []string      `mapstructure:"whitelist"`
	Blacklist     []string      `mapstructure:"blacklist"`
}

// defaults are registered on every loader so that environment variables
// are picked up for every key during Unmarshal.
var defaults = map[string]any{
	"port":                      8080,
	"store.driver":              DriverMemory,
	"store.database_url":        "",
	"store.sqlite_path":         "resume-guard.db",
	"evidence.url":              "",
	"evidence.dir":              "",
	"evidence.timeout":          10 * time.Second,
	"evidence.retries":          2,
	"evidence.top_k":            3,
	"llm.api_key":               "",
	"llm.timeout":               30 * time.Second,
	"llm.extract_skills":        false,
	"fetch.use_browser":         false,
	"events.amqp_url":           "",
	"events.exchange":           "resume-guard",
	"events.timeout":            5 * time.Second,
	"archive.s3_bucket":         "",
	"archive.s3_region":         "us-east-1",
	"archive.s3_endpoint":       "",
	"archive.s3_prefix":         "resumes",
	"archive.access_key_id":     "",
	"archive.secret_access_key": "",
	"archive.timeout":           15 * time.Second,
	"log.json":                  false,
	"log.debug":                 false,
	"defaults.truth_mode":       string(types.TruthOff),
	"defaults.top_n_skills":     types.DefaultTopNSkills,
	"ratelimit.enabled":         true,
	"ratelimit.default_limit":   1000,
	"ratelimit.default_window":  time.Minute,
	"ratelimit.whitelist":       []string{},
	"ratelimit.blacklist":       []string{},
}

// NewViper returns a viper instance with defaults and environment binding.
// Callers may bind command-line flags on it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// unprefixed names shared with the rest of the toolchain
	_ = v.BindEnv("store.database_url", EnvPrefix+"_STORE_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("archive.access_key_id", EnvPrefix+"_ARCHIVE_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("archive.secret_access_key", EnvPrefix+"_ARCHIVE_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")
	return v
}

// Load reads path (YAML, JSON or TOML by extension) when given, then
// unmarshals and validates. A nil v uses NewViper.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535, got %d", c.Port)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("config error: 'store.database_url' is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("config error: 'store.sqlite_path' is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config error: unknown store driver %q (want memory, postgres or sqlite)", c.Store.Driver)
	}

	if c.Evidence.URL != "" && c.Evidence.Dir != "" {
		return fmt.Errorf("config error: 'evidence.url' and 'evidence.dir' are mutually exclusive")
	}
	if c.Evidence.Timeout <= 0 {
		return fmt.Errorf("config error: 'evidence.timeout' must be positive")
	}
	if c.Evidence.Retries < 0 {
		return fmt.Errorf("config error: 'evidence.retries' must be non-negative")
	}
	if c.Evidence.TopK < 1 {
		return fmt.Errorf("config error: 'evidence.top_k' must be at least 1")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("config error: 'llm.timeout' must be positive")
	}
	if c.Events.Timeout <= 0 {
		return fmt.Errorf("config error: 'events.timeout' must be positive")
	}
	if c.Archive.Timeout <= 0 {
		return fmt.Errorf("config error: 'archive.timeout' must be positive")
	}

	if _, err := types.ParseTruthMode(c.Defaults.TruthMode); err != nil {
		return fmt.Errorf("config error: 'defaults.truth_mode': %w", err)
	}
	if c.Defaults.TopNSkills < 1 || c.Defaults.TopNSkills > 200 {
		return fmt.Errorf("config error: 'defaults.top_n_skills' must be between 1 and 200")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.DefaultLimit < 1 {
			return fmt.Errorf("config error: 'ratelimit.default_limit' must be at least 1")
		}
		if c.RateLimit.DefaultWindow <= 0 {
			return fmt.Errorf("config error: 'ratelimit.default_window' must be positive")
		}
	}
	return nil
}

// TruthMode returns the configured default truth mode.
func (c *Config) TruthMode() types.TruthMode {
	mode, err := types.ParseTruthMode(c.Defaults.TruthMode)
	if err != nil {
		return types.TruthOff
	}
	return mode
}
