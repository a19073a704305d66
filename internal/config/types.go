package config

import "time"

// Config represents the complete redistq configuration.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	WorkList WorkListConfig `yaml:"worklist"`
	Throttle ThrottleConfig `yaml:"throttle"`
	Journal  JournalConfig  `yaml:"journal"`
	Log      LogConfig      `yaml:"log"`
	API      APIConfig      `yaml:"api,omitempty"`
}

// SiteConfig identifies the backend session: which site to talk to and how.
type SiteConfig struct {
	Code    string        `yaml:"code"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	// TokenEnv names the environment variable holding the bearer token.
	// When unset or empty at runtime, the OS keyring is consulted.
	TokenEnv string `yaml:"token_env,omitempty"`
}

// WorkListConfig locates the newline-delimited token file.
type WorkListConfig struct {
	Path string `yaml:"path"`
}

// ThrottleConfig holds the admission thresholds. Immutable for the process
// lifetime once loaded.
type ThrottleConfig struct {
	InProgressThreshold int           `yaml:"in_progress_threshold"`
	TargetThreshold     int           `yaml:"target_threshold"`
	MaxConcurrent       int           `yaml:"max_concurrent"`
	Delay               time.Duration `yaml:"delay"`
}

// JournalConfig defines the SQLite run journal location.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// LogConfig defines logging output settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
	Dir    string `yaml:"dir,omitempty"`
}

// APIConfig defines the optional read-only status HTTP server.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// Defaults returns a Config with sensible defaults. Threshold fields have no
// default on purpose: both are required and zero is a legal value, so the
// loader tracks their presence separately.
func Defaults() *Config {
	return &Config{
		Site: SiteConfig{
			Timeout:  30 * time.Second,
			TokenEnv: "REDISTQ_API_TOKEN",
		},
		Throttle: ThrottleConfig{
			MaxConcurrent: 5,
			Delay:         15 * time.Minute,
		},
		Journal: JournalConfig{
			Path: "./data/redistq.db",
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
		},
		API: APIConfig{
			Listen: "127.0.0.1:8671",
		},
	}
}
