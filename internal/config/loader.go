// Package config provides configuration loading for secfetch.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/secdatalab/secfetch/internal/logging"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// DefaultBaseDir is where datasets land when no directory is configured.
	DefaultBaseDir = "./cybersecurity_datasets"

	// DefaultNVDBaseURL is the NVD CVE API 2.0 endpoint.
	DefaultNVDBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

	// DefaultHubBaseURL is the Hugging Face hub endpoint.
	DefaultHubBaseURL = "https://huggingface.co"
)

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (NVD_API_KEY, GIT_CLONE_TIMEOUT, ...)
//  2. YAML config file (~/.config/secfetch/config.yaml)
//  3. Hardcoded defaults
//
// The configPath parameter specifies the YAML file to load. If empty, the
// default path is used and a missing file is not an error.
//
// Environment variables use an underscore separator and are uppercased. The
// transformer splits on the first underscore (section.field_name pattern):
//
//	NVD_API_KEY       -> nvd.api_key
//	GIT_CLONE_TIMEOUT -> git.clone_timeout
//	LOGGING_LEVEL     -> logging.level
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "secfetch", "config.yaml")
	}

	if info, err := os.Stat(configPath); err == nil {
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Override with environment variables. Only variables whose section
	// prefix matches a known config section are consumed, so unrelated
	// environment noise (PATH, HOME, ...) is ignored.
	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envSections are the config sections settable from the environment.
var envSections = map[string]bool{
	"base":    true, // BASE_DIR, remapped below
	"git":     true,
	"nvd":     true,
	"hub":     true,
	"logging": true,
}

// envTransform maps environment variable names to config keys.
// Splits on the first underscore: NVD_API_KEY -> nvd.api_key.
// Unknown section prefixes map to "" and are dropped by koanf.
func envTransform(s string) string {
	lower := strings.ToLower(s)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) != 2 || !envSections[parts[0]] {
		return ""
	}
	if lower == "base_dir" {
		return "base_dir"
	}
	return parts[0] + "." + parts[1]
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.BaseDir == "" {
		cfg.BaseDir = DefaultBaseDir
	}

	if cfg.Git.CloneTimeout == 0 {
		cfg.Git.CloneTimeout = Duration(5 * time.Minute)
	}

	if cfg.NVD.BaseURL == "" {
		cfg.NVD.BaseURL = DefaultNVDBaseURL
	}
	if cfg.NVD.PageSize == 0 {
		cfg.NVD.PageSize = 2000
	}
	if cfg.NVD.RequestTimeout == 0 {
		cfg.NVD.RequestTimeout = Duration(30 * time.Second)
	}
	if cfg.NVD.MaxRetries == 0 {
		cfg.NVD.MaxRetries = 3
	}

	if cfg.Hub.BaseURL == "" {
		cfg.Hub.BaseURL = DefaultHubBaseURL
	}
	if cfg.Hub.FileTimeout == 0 {
		cfg.Hub.FileTimeout = Duration(10 * time.Minute)
	}

	if cfg.Logging.Level == "" || cfg.Logging.Format == "" {
		defaults := logging.NewDefaultConfig()
		if cfg.Logging.Level == "" {
			cfg.Logging.Level = defaults.Level
		}
		if cfg.Logging.Format == "" {
			cfg.Logging.Format = defaults.Format
		}
		if cfg.Logging.Fields == nil {
			cfg.Logging.Fields = defaults.Fields
		}
	}
}
