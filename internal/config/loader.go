package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// fileConfig mirrors Config but keeps the required threshold fields as
// pointers so a missing key can be told apart from an explicit zero.
type fileConfig struct {
	Site     SiteConfig     `yaml:"site"`
	WorkList WorkListConfig `yaml:"worklist"`
	Throttle struct {
		InProgressThreshold *int           `yaml:"in_progress_threshold"`
		TargetThreshold     *int           `yaml:"target_threshold"`
		MaxConcurrent       *int           `yaml:"max_concurrent"`
		Delay               *time.Duration `yaml:"delay"`
	} `yaml:"throttle"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
	API     *APIConfig    `yaml:"api"`
}

// Load reads and parses configuration from a YAML file, applies defaults,
// interpolates ${ENV} references, and validates the result.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with -config flag", absPath)
	}

	interpolated := interpolateEnv(string(data))

	var fc fileConfig
	dec := yaml.NewDecoder(strings.NewReader(interpolated))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", absPath, err)
	}

	cfg := Defaults()
	mergeFileConfig(cfg, &fc)

	// Paths in the file resolve relative to the file, not the cwd.
	baseDir := filepath.Dir(absPath)
	cfg.WorkList.Path = resolvePath(baseDir, cfg.WorkList.Path)
	cfg.Journal.Path = resolvePath(baseDir, cfg.Journal.Path)
	if cfg.Log.Dir != "" {
		cfg.Log.Dir = resolvePath(baseDir, cfg.Log.Dir)
	}

	if err := validate(cfg, &fc); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func mergeFileConfig(cfg *Config, fc *fileConfig) {
	if fc.Site.Code != "" {
		cfg.Site.Code = fc.Site.Code
	}
	if fc.Site.URL != "" {
		cfg.Site.URL = fc.Site.URL
	}
	if fc.Site.Timeout > 0 {
		cfg.Site.Timeout = fc.Site.Timeout
	}
	if fc.Site.TokenEnv != "" {
		cfg.Site.TokenEnv = fc.Site.TokenEnv
	}
	if fc.WorkList.Path != "" {
		cfg.WorkList.Path = fc.WorkList.Path
	}
	if fc.Throttle.InProgressThreshold != nil {
		cfg.Throttle.InProgressThreshold = *fc.Throttle.InProgressThreshold
	}
	if fc.Throttle.TargetThreshold != nil {
		cfg.Throttle.TargetThreshold = *fc.Throttle.TargetThreshold
	}
	if fc.Throttle.MaxConcurrent != nil {
		cfg.Throttle.MaxConcurrent = *fc.Throttle.MaxConcurrent
	}
	if fc.Throttle.Delay != nil {
		cfg.Throttle.Delay = *fc.Throttle.Delay
	}
	if fc.Journal.Path != "" {
		cfg.Journal.Path = fc.Journal.Path
	}
	if fc.Log.Level != "" {
		cfg.Log.Level = fc.Log.Level
	}
	if fc.Log.Format != "" {
		cfg.Log.Format = fc.Log.Format
	}
	if fc.Log.Dir != "" {
		cfg.Log.Dir = fc.Log.Dir
	}
	if fc.API != nil {
		if fc.API.Listen == "" {
			fc.API.Listen = cfg.API.Listen
		}
		cfg.API = *fc.API
	}
}

func validate(cfg *Config, fc *fileConfig) error {
	if cfg.Site.URL == "" {
		return fmt.Errorf("site.url is required")
	}
	if cfg.Site.Code == "" {
		return fmt.Errorf("site.code is required")
	}
	if cfg.WorkList.Path == "" {
		return fmt.Errorf("worklist.path is required")
	}
	if fc.Throttle.InProgressThreshold == nil {
		return fmt.Errorf("throttle.in_progress_threshold is required")
	}
	if fc.Throttle.TargetThreshold == nil {
		return fmt.Errorf("throttle.target_threshold is required")
	}
	if cfg.Throttle.InProgressThreshold < 0 {
		return fmt.Errorf("throttle.in_progress_threshold must be >= 0, got %d", cfg.Throttle.InProgressThreshold)
	}
	if cfg.Throttle.TargetThreshold < 0 {
		return fmt.Errorf("throttle.target_threshold must be >= 0, got %d", cfg.Throttle.TargetThreshold)
	}
	if cfg.Throttle.MaxConcurrent < 1 {
		return fmt.Errorf("throttle.max_concurrent must be >= 1, got %d", cfg.Throttle.MaxConcurrent)
	}
	if cfg.Throttle.Delay < 0 {
		return fmt.Errorf("throttle.delay must be >= 0, got %s", cfg.Throttle.Delay)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	if cfg.API.Enabled && cfg.API.Listen == "" {
		return fmt.Errorf("api.listen is required when api.enabled is true")
	}
	return nil
}

// interpolateEnv replaces ${VAR} references with environment values.
// Unset variables interpolate to the empty string.
func interpolateEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
