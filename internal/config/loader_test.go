package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
site:
  code: PS1
  url: https://cm.example.internal/api
worklist:
  path: worklist.txt
throttle:
  in_progress_threshold: 15
  target_threshold: 100
`

func TestLoadMinimalAppliesDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "PS1", cfg.Site.Code)
	assert.Equal(t, 15, cfg.Throttle.InProgressThreshold)
	assert.Equal(t, 100, cfg.Throttle.TargetThreshold)
	assert.Equal(t, 5, cfg.Throttle.MaxConcurrent)
	assert.Equal(t, 15*time.Minute, cfg.Throttle.Delay)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.API.Enabled)

	// Relative paths resolve against the config file's directory.
	assert.Equal(t, filepath.Join(filepath.Dir(path), "worklist.txt"), cfg.WorkList.Path)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
site:
  code: PS1
  url: https://cm.example.internal/api
  timeout: 10s
worklist:
  path: /srv/batch/pilot.txt
throttle:
  in_progress_threshold: 0
  target_threshold: 0
  max_concurrent: 3
  delay: 5m
journal:
  path: /var/lib/redistq/journal.db
log:
  level: DEBUG
  format: json
api:
  enabled: true
  listen: 127.0.0.1:9944
  api_key: sekrit
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Site.Timeout)
	assert.Equal(t, "/srv/batch/pilot.txt", cfg.WorkList.Path)
	assert.Equal(t, 0, cfg.Throttle.InProgressThreshold)
	assert.Equal(t, 0, cfg.Throttle.TargetThreshold)
	assert.Equal(t, 3, cfg.Throttle.MaxConcurrent)
	assert.Equal(t, 5*time.Minute, cfg.Throttle.Delay)
	assert.Equal(t, "/var/lib/redistq/journal.db", cfg.Journal.Path)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "127.0.0.1:9944", cfg.API.Listen)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			"missing site url",
			"site:\n  code: PS1\nworklist:\n  path: w.txt\nthrottle:\n  in_progress_threshold: 1\n  target_threshold: 1\n",
			"site.url is required",
		},
		{
			"missing in_progress_threshold",
			"site:\n  code: PS1\n  url: https://x\nworklist:\n  path: w.txt\nthrottle:\n  target_threshold: 1\n",
			"in_progress_threshold is required",
		},
		{
			"missing target_threshold",
			"site:\n  code: PS1\n  url: https://x\nworklist:\n  path: w.txt\nthrottle:\n  in_progress_threshold: 1\n",
			"target_threshold is required",
		},
		{
			"negative threshold",
			"site:\n  code: PS1\n  url: https://x\nworklist:\n  path: w.txt\nthrottle:\n  in_progress_threshold: -1\n  target_threshold: 1\n",
			"must be >= 0",
		},
		{
			"max_concurrent below one",
			"site:\n  code: PS1\n  url: https://x\nworklist:\n  path: w.txt\nthrottle:\n  in_progress_threshold: 1\n  target_threshold: 1\n  max_concurrent: 0\n",
			"max_concurrent must be >= 1",
		},
		{
			"bad log format",
			"site:\n  code: PS1\n  url: https://x\nworklist:\n  path: w.txt\nthrottle:\n  in_progress_threshold: 1\n  target_threshold: 1\nlog:\n  format: xml\n",
			"log.format",
		},
		{
			"unknown field rejected",
			"site:\n  code: PS1\n  url: https://x\nbogus: true\nworklist:\n  path: w.txt\nthrottle:\n  in_progress_threshold: 1\n  target_threshold: 1\n",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadInterpolatesEnv(t *testing.T) {
	t.Setenv("REDISTQ_TEST_SITE", "CAS")
	path := writeConfig(t, `
site:
  code: ${REDISTQ_TEST_SITE}
  url: https://cm.example.internal/api
worklist:
  path: w.txt
throttle:
  in_progress_threshold: 1
  target_threshold: 1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "CAS", cfg.Site.Code)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}
