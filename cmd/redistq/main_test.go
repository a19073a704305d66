package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
site:
  code: PS1
  url: https://cm.example.internal/api
worklist:
  path: worklist.txt
throttle:
  in_progress_threshold: 15
  target_threshold: 100
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestConfigCheckAndLock(t *testing.T) {
	path := writeTestConfig(t)

	assert.Equal(t, exitOK, runConfigNoun([]string{"check", "-config", path}))
	assert.Equal(t, exitOK, runConfigNoun([]string{"lock", "-config", path}))
	assert.Equal(t, exitOK, runConfigNoun([]string{"check", "-config", path}))

	// Edit after lock: integrity check must fail.
	require.NoError(t, os.WriteFile(path, []byte("site:\n  code: XX1\n  url: https://x\nworklist:\n  path: w\nthrottle:\n  in_progress_threshold: 0\n  target_threshold: 0\n"), 0o644))
	assert.Equal(t, exitUsage, runConfigNoun([]string{"check", "-config", path}))
}

func TestConfigCheckInvalidFile(t *testing.T) {
	assert.Equal(t, exitUsage, runConfigNoun([]string{"check", "-config", filepath.Join(t.TempDir(), "missing.yaml")}))
}

func TestConfigUnknownAction(t *testing.T) {
	assert.Equal(t, exitUsage, runConfigNoun([]string{"frobnicate"}))
	assert.Equal(t, exitUsage, runConfigNoun(nil))
}

func TestRunWithMissingConfig(t *testing.T) {
	assert.Equal(t, exitUsage, runRun([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}))
}
