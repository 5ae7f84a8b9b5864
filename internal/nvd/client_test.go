package nvd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secdatalab/secfetch/internal/config"
	"github.com/secdatalab/secfetch/internal/logging"
	"github.com/secdatalab/secfetch/internal/ratelimit"
)

// newTestClient builds a client against the test server with a fast
// limiter so tests do not sleep on real NVD intervals.
func newTestClient(t *testing.T, serverURL string, apiKey string, maxRetries int) *Client {
	t.Helper()

	cfg := config.NVDConfig{
		BaseURL:        serverURL,
		APIKey:         config.Secret(apiKey),
		PageSize:       2000,
		RequestTimeout: config.Duration(5 * time.Second),
		MaxRetries:     maxRetries,
	}
	client := NewClient(cfg, ratelimit.New(time.Millisecond), logging.NewTestLogger().Logger)

	// Shorten backoff; retry tests must not sleep for the production
	// initial delay.
	client.retry.InitialBackoff = time.Millisecond
	client.retry.MaxBackoff = 10 * time.Millisecond

	return client
}

func TestFetchPageOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("startIndex"))
		fmt.Fprint(w, `{"totalResults": 2, "vulnerabilities": [{"cve": {"id": "CVE-2024-0001"}}, {"cve": {"id": "CVE-2024-0002"}}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "", 0)

	query := url.Values{}
	query.Set("startIndex", "0")
	page, err := client.FetchPage(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalResults)
	assert.Len(t, page.Vulnerabilities, 2)
}

func TestFetchPageSendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(apiKeyHeader)
		fmt.Fprint(w, `{"totalResults": 0, "vulnerabilities": []}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "test-key", 0)
	_, err := client.FetchPage(context.Background(), url.Values{})
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotKey)
}

func TestFetchPageNotFoundIsEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "", 0)
	page, err := client.FetchPage(context.Background(), url.Values{})
	require.NoError(t, err)

	assert.Zero(t, page.TotalResults)
	assert.Empty(t, page.Vulnerabilities)
}

func TestFetchPageRetriesThrottling(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"totalResults": 1, "vulnerabilities": [{"cve": {"id": "CVE-2024-0001"}}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "", 3)
	page, err := client.FetchPage(context.Background(), url.Values{})
	require.NoError(t, err)

	assert.Equal(t, 1, page.TotalResults)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPageRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "", 2)
	_, err := client.FetchPage(context.Background(), url.Values{})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")
}

func TestFetchPageServerErrorIsRetryable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"totalResults": 0, "vulnerabilities": []}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "", 1)
	_, err := client.FetchPage(context.Background(), url.Values{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchPageClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "", 3)
	_, err := client.FetchPage(context.Background(), url.Values{})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "HTTP 403")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchPageMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"totalResults": `)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "", 3)
	_, err := client.FetchPage(context.Background(), url.Values{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestFetchPageContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "", 5)
	client.retry.InitialBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchPage(ctx, url.Values{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
