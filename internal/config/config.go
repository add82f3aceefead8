// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Blog    BlogConfig    `mapstructure:"blog"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Harvest HarvestConfig `mapstructure:"harvest"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BlogConfig names the harvest target.
type BlogConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// HTTPConfig configures fetch timeout, retry, and pacing behavior.
type HTTPConfig struct {
	UserAgent         string  `mapstructure:"user_agent"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	MaxRetries        int     `mapstructure:"max_retries"`
	BackoffInitialMs  int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs      int     `mapstructure:"backoff_max_ms"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// HarvestConfig governs the worker pool.
type HarvestConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// ArchiveConfig sets output file placement and chunking.
type ArchiveConfig struct {
	Dir            string `mapstructure:"dir"`
	IndexFile      string `mapstructure:"index_file"`
	SessionFile    string `mapstructure:"session_file"`
	ChunkPostLimit int    `mapstructure:"chunk_post_limit"`
	Creator        string `mapstructure:"creator"`
}

// LoggingConfig toggles zap development features and names the diagnostic
// log file.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LJX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("http.requests_per_second", 0.5)
	v.SetDefault("harvest.concurrency", 4)
	v.SetDefault("archive.dir", "archive")
	v.SetDefault("archive.index_file", "archive/index.csv")
	v.SetDefault("archive.session_file", "archive/session.json")
	v.SetDefault("archive.chunk_post_limit", 50)
	v.SetDefault("archive.creator", "ljextractor")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "ljextractor.log")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Harvest.Concurrency <= 0 {
		return fmt.Errorf("harvest.concurrency must be > 0")
	}
	if c.Archive.Dir == "" {
		return fmt.Errorf("archive.dir must be set")
	}
	if c.Archive.ChunkPostLimit <= 0 {
		return fmt.Errorf("archive.chunk_post_limit must be > 0")
	}
	return nil
}

// Timeout converts the HTTP timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffInitial converts the initial backoff into a duration.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// BackoffMax converts the backoff ceiling into a duration.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}
