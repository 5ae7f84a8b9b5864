// Package nvd fetches CVE records from the NVD CVE API 2.0.
//
// The API is heavily rate limited: 600ms between requests with an API key,
// 6s without. The client waits on its rate limiter before every request and
// retries throttled or transient failures a bounded number of times with
// exponential backoff; consecutive requests are therefore never closer
// together than the limiter interval.
package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/secdatalab/secfetch/internal/config"
	"github.com/secdatalab/secfetch/internal/logging"
	"github.com/secdatalab/secfetch/internal/ratelimit"
)

// apiKeyHeader is the NVD authentication header.
const apiKeyHeader = "apiKey"

// RetryConfig configures retry behavior for API requests.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the
	// initial request.
	MaxRetries int

	// InitialBackoff is the first retry delay. Never configured below
	// the limiter interval.
	InitialBackoff time.Duration

	// MaxBackoff caps the retry delay.
	MaxBackoff time.Duration

	// Multiplier grows the delay between attempts.
	Multiplier float64
}

// Page is one page of the CVE API response. Record bodies are kept opaque;
// secfetch stores them, it does not interpret them.
type Page struct {
	TotalResults    int               `json:"totalResults"`
	Vulnerabilities []json.RawMessage `json:"vulnerabilities"`
}

// Client issues rate-limited, retried GET requests against the CVE API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	retry      RetryConfig
	log        *logging.Logger
}

// NewClient creates an API client from config. The limiter instance is
// owned by the caller and injected, never package state.
func NewClient(cfg config.NVDConfig, limiter *ratelimit.Limiter, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}

	initial := limiter.Interval()
	if initial < time.Second {
		initial = time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey.Value(),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout.Duration(),
		},
		limiter: limiter,
		retry: RetryConfig{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: initial,
			MaxBackoff:     time.Minute,
			Multiplier:     2.0,
		},
		log: log,
	}
}

// FetchPage retrieves one page for the given query parameters. HTTP 404 and
// empty result sets are valid empty pages, not errors: some ranges (a
// future year, a quiet window) legitimately contain zero records.
func (c *Client) FetchPage(ctx context.Context, query url.Values) (*Page, error) {
	var lastErr error
	backoff := c.retry.InitialBackoff

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.Info(ctx, "retrying API request",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.retry.MaxRetries),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff = time.Duration(float64(backoff) * c.retry.Multiplier)
			if backoff > c.retry.MaxBackoff {
				backoff = c.retry.MaxBackoff
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		page, retryable, err := c.doRequest(ctx, query)
		if err == nil {
			return page, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", c.retry.MaxRetries, lastErr)
}

// doRequest performs one GET. The bool result reports whether the error is
// retryable (throttling, server errors, network failures).
func (c *Client) doRequest(ctx context.Context, query url.Values) (*Page, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("building request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, fmt.Errorf("reading response body: %w", err)
		}
		var page Page
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, false, fmt.Errorf("malformed response body: %w", err)
		}
		return &page, false, nil

	case resp.StatusCode == http.StatusNotFound:
		// No data for this range.
		return &Page{}, false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("throttled (HTTP 429)")

	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error (HTTP %d)", resp.StatusCode)

	default:
		return nil, false, fmt.Errorf("unexpected status HTTP %d", resp.StatusCode)
	}
}
