package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/secdatalab/secfetch/internal/logging"
)

// Duration wraps time.Duration for text unmarshaling (YAML, env vars).
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Secret wraps strings that should be redacted in logs and serialization.
// Use Value() to access the actual secret value.
type Secret string

// String implements fmt.Stringer. Always returns redacted value.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "Secret([REDACTED])"
}

// MarshalJSON always serializes to the redacted form.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Value returns the actual secret value.
func (s Secret) Value() string {
	return string(s)
}

// Config is the top-level secfetch configuration.
type Config struct {
	// BaseDir is the root of the dataset output tree.
	BaseDir string `koanf:"base_dir"`

	Git     GitConfig      `koanf:"git"`
	NVD     NVDConfig      `koanf:"nvd"`
	Hub     HubConfig      `koanf:"hub"`
	Logging logging.Config `koanf:"logging"`
}

// GitConfig configures repository cloning.
type GitConfig struct {
	// CloneTimeout bounds a single clone or update operation.
	CloneTimeout Duration `koanf:"clone_timeout"`
}

// NVDConfig configures the NVD CVE API client.
type NVDConfig struct {
	// BaseURL is the CVE API endpoint.
	BaseURL string `koanf:"base_url"`

	// APIKey raises the NVD rate limit when set. Read from NVD_API_KEY.
	APIKey Secret `koanf:"api_key"`

	// PageSize is resultsPerPage per request. NVD caps this at 2000.
	PageSize int `koanf:"page_size"`

	// RequestTimeout bounds a single API request.
	RequestTimeout Duration `koanf:"request_timeout"`

	// MaxRetries bounds retry attempts after a throttled request.
	MaxRetries int `koanf:"max_retries"`
}

// HubConfig configures Hugging Face dataset snapshot downloads.
type HubConfig struct {
	// BaseURL is the hub endpoint.
	BaseURL string `koanf:"base_url"`

	// FileTimeout bounds the download of a single dataset file.
	FileTimeout Duration `koanf:"file_timeout"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir cannot be empty")
	}
	if c.Git.CloneTimeout.Duration() <= 0 {
		return fmt.Errorf("git.clone_timeout must be positive")
	}
	if c.NVD.BaseURL == "" {
		return fmt.Errorf("nvd.base_url cannot be empty")
	}
	if c.NVD.PageSize < 1 || c.NVD.PageSize > 2000 {
		return fmt.Errorf("nvd.page_size must be in [1, 2000], got %d", c.NVD.PageSize)
	}
	if c.NVD.RequestTimeout.Duration() <= 0 {
		return fmt.Errorf("nvd.request_timeout must be positive")
	}
	if c.NVD.MaxRetries < 0 {
		return fmt.Errorf("nvd.max_retries cannot be negative")
	}
	if c.Hub.BaseURL == "" {
		return fmt.Errorf("hub.base_url cannot be empty")
	}
	if c.Hub.FileTimeout.Duration() <= 0 {
		return fmt.Errorf("hub.file_timeout must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
