package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWithFileDefaults(t *testing.T) {
	// A missing explicit config file falls back to defaults.
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseDir, cfg.BaseDir)
	assert.Equal(t, 5*time.Minute, cfg.Git.CloneTimeout.Duration())
	assert.Equal(t, DefaultNVDBaseURL, cfg.NVD.BaseURL)
	assert.Equal(t, 2000, cfg.NVD.PageSize)
	assert.Equal(t, 30*time.Second, cfg.NVD.RequestTimeout.Duration())
	assert.Equal(t, 3, cfg.NVD.MaxRetries)
	assert.Equal(t, DefaultHubBaseURL, cfg.Hub.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Hub.FileTimeout.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadWithFileYAML(t *testing.T) {
	path := writeConfig(t, `
base_dir: /data/security
git:
  clone_timeout: 10m
nvd:
  page_size: 500
  max_retries: 5
logging:
  level: debug
  format: json
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/security", cfg.BaseDir)
	assert.Equal(t, 10*time.Minute, cfg.Git.CloneTimeout.Duration())
	assert.Equal(t, 500, cfg.NVD.PageSize)
	assert.Equal(t, 5, cfg.NVD.MaxRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Unset fields keep their defaults.
	assert.Equal(t, DefaultNVDBaseURL, cfg.NVD.BaseURL)
}

func TestLoadWithFileEnvOverride(t *testing.T) {
	path := writeConfig(t, `
nvd:
  page_size: 500
`)

	t.Setenv("NVD_API_KEY", "env-api-key")
	t.Setenv("NVD_PAGE_SIZE", "1000")
	t.Setenv("GIT_CLONE_TIMEOUT", "90s")
	t.Setenv("BASE_DIR", "/env/datasets")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "env-api-key", cfg.NVD.APIKey.Value())
	assert.Equal(t, 1000, cfg.NVD.PageSize, "environment overrides file")
	assert.Equal(t, 90*time.Second, cfg.Git.CloneTimeout.Duration())
	assert.Equal(t, "/env/datasets", cfg.BaseDir)
}

func TestLoadWithFileInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "page size out of range",
			yaml:    "nvd:\n  page_size: 9999\n",
			wantErr: "page_size",
		},
		{
			name:    "bad duration",
			yaml:    "git:\n  clone_timeout: sometime\n",
			wantErr: "clone_timeout",
		},
		{
			name:    "bad log level",
			yaml:    "logging:\n  level: loud\n",
			wantErr: "level",
		},
		{
			name:    "malformed yaml",
			yaml:    "base_dir: [unclosed\n",
			wantErr: "failed to load config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWithFileTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, make([]byte, maxConfigFileSize+1), 0o644))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"NVD_API_KEY", "nvd.api_key"},
		{"NVD_PAGE_SIZE", "nvd.page_size"},
		{"GIT_CLONE_TIMEOUT", "git.clone_timeout"},
		{"HUB_FILE_TIMEOUT", "hub.file_timeout"},
		{"LOGGING_LEVEL", "logging.level"},
		{"BASE_DIR", "base_dir"},
		{"PATH", ""},
		{"HOME", ""},
		{"SOME_RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, envTransform(tt.input), "input %q", tt.input)
	}
}
