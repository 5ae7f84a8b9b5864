package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/secdatalab/secfetch/internal/catalog"
	"github.com/secdatalab/secfetch/internal/dirstat"
	"github.com/secdatalab/secfetch/internal/logging"
	"github.com/secdatalab/secfetch/internal/phase"
	"github.com/secdatalab/secfetch/internal/probe"
)

const (
	statisticsFile = "cve_statistics.json"
	nvdDateFormat  = "2006-01-02T15:04:05.000"
)

// Artifact is the persisted form of one parameter set's records.
type Artifact struct {
	Year            int               `json:"year,omitempty"`
	WindowDays      int               `json:"window_days,omitempty"`
	StartDate       string            `json:"start_date,omitempty"`
	EndDate         string            `json:"end_date,omitempty"`
	TotalCVEs       int               `json:"total_cves"`
	FetchedAt       time.Time         `json:"fetched_at"`
	Vulnerabilities []json.RawMessage `json:"vulnerabilities"`
}

// Statistics is the counts-only side file written next to the artifacts.
type Statistics struct {
	TotalCVEs      int            `json:"total_cves"`
	Files          int            `json:"files"`
	ByYear         map[string]int `json:"by_year"`
	RecentModified int            `json:"recent_modified,omitempty"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// Fetcher acquires an API-backed resource: one artifact file per query
// parameter set, paginated to exhaustion, plus a statistics side file.
//
// Artifacts already valid on disk are skipped unless update mode is
// active. Interrupting a run and re-invoking it therefore resumes at the
// first unfetched parameter set.
type Fetcher struct {
	client   *Client
	pageSize int
	log      *logging.Logger

	// now is replaceable for deterministic window queries in tests.
	now func() time.Time
}

// NewFetcher creates an API fetcher using the given client.
func NewFetcher(client *Client, pageSize int, log *logging.Logger) *Fetcher {
	if log == nil {
		log = logging.NewNop()
	}
	return &Fetcher{
		client:   client,
		pageSize: pageSize,
		log:      log,
		now:      time.Now,
	}
}

// Fetch implements phase.Fetcher for API resources.
func (f *Fetcher) Fetch(ctx context.Context, desc catalog.Descriptor, targetDir string, update bool) phase.Outcome {
	out := phase.Outcome{
		Name:   desc.LocalName,
		Kind:   desc.Kind,
		Source: desc.Source,
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		out.Status = phase.StatusFailed
		out.Detail = fmt.Sprintf("creating target directory: %v", err)
		return out
	}

	stats := Statistics{ByYear: make(map[string]int)}
	var fetched, skipped int
	var failures []string

	for _, params := range desc.Params {
		artifactPath := filepath.Join(targetDir, params.ArtifactName())

		if !update && probe.Artifact(artifactPath) == probe.Valid {
			f.log.Info(ctx, "artifact already present", zap.String("artifact", params.ArtifactName()))
			skipped++
			if count, err := readArtifactCount(artifactPath); err == nil {
				stats.add(params, count)
			}
			continue
		}

		records, err := f.fetchAll(ctx, params)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", params.Label(), err))
			continue
		}

		if err := f.writeArtifact(artifactPath, params, records); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", params.Label(), err))
			continue
		}

		f.log.Info(ctx, "artifact written",
			zap.String("artifact", params.ArtifactName()),
			zap.Int("records", len(records)),
		)
		fetched++
		stats.add(params, len(records))
	}

	if fetched+skipped > 0 {
		if err := f.writeStatistics(targetDir, stats); err != nil {
			f.log.Warn(ctx, "writing statistics side file failed", zap.Error(err))
		}
	}

	switch {
	case fetched > 0:
		out.Status = phase.StatusDownloaded
		out.Detail = summarize(fetched, skipped, failures)
	case len(failures) == len(desc.Params):
		out.Status = phase.StatusFailed
		out.Detail = strings.Join(failures, "; ")
	default:
		// Nothing new, nothing fully broken: remaining failures are
		// retried on the next run.
		out.Status = phase.StatusSkipped
		out.Detail = summarize(fetched, skipped, failures)
	}

	if out.Status != phase.StatusFailed {
		out.SizeBytes = dirstat.Size(targetDir)
	}
	return out
}

// fetchAll paginates one parameter set to exhaustion.
func (f *Fetcher) fetchAll(ctx context.Context, params catalog.QueryParams) ([]json.RawMessage, error) {
	records := make([]json.RawMessage, 0, f.pageSize)
	startIndex := 0

	for {
		page, err := f.client.FetchPage(ctx, f.buildQuery(params, startIndex))
		if err != nil {
			return nil, err
		}
		if len(page.Vulnerabilities) == 0 {
			break
		}

		records = append(records, page.Vulnerabilities...)
		if len(records) >= page.TotalResults {
			break
		}
		startIndex += len(page.Vulnerabilities)
	}

	return records, nil
}

// buildQuery renders a parameter set and pagination offset to API query
// parameters.
func (f *Fetcher) buildQuery(params catalog.QueryParams, startIndex int) url.Values {
	query := url.Values{}
	query.Set("startIndex", strconv.Itoa(startIndex))
	query.Set("resultsPerPage", strconv.Itoa(f.pageSize))

	if params.Year != 0 {
		query.Set("pubStartDate", fmt.Sprintf("%d-01-01T00:00:00.000", params.Year))
		query.Set("pubEndDate", fmt.Sprintf("%d-12-31T23:59:59.999", params.Year))
		return query
	}

	end := f.now().UTC()
	start := end.AddDate(0, 0, -params.ModifiedWithinDays)
	query.Set("lastModStartDate", start.Format(nvdDateFormat))
	query.Set("lastModEndDate", end.Format(nvdDateFormat))
	return query
}

func (f *Fetcher) writeArtifact(path string, params catalog.QueryParams, records []json.RawMessage) error {
	artifact := Artifact{
		Year:            params.Year,
		WindowDays:      params.ModifiedWithinDays,
		TotalCVEs:       len(records),
		FetchedAt:       f.now().UTC(),
		Vulnerabilities: records,
	}
	if params.ModifiedWithinDays != 0 {
		end := f.now().UTC()
		artifact.StartDate = end.AddDate(0, 0, -params.ModifiedWithinDays).Format(nvdDateFormat)
		artifact.EndDate = end.Format(nvdDateFormat)
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

func (f *Fetcher) writeStatistics(targetDir string, stats Statistics) error {
	stats.GeneratedAt = f.now().UTC()

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling statistics: %w", err)
	}
	path := filepath.Join(targetDir, statisticsFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing statistics: %w", err)
	}
	return nil
}

// add accumulates one parameter set's record count.
func (s *Statistics) add(params catalog.QueryParams, count int) {
	s.TotalCVEs += count
	s.Files++
	if params.Year != 0 {
		s.ByYear[strconv.Itoa(params.Year)] = count
	} else {
		s.RecentModified = count
	}
}

// readArtifactCount reads the record count from an existing artifact.
func readArtifactCount(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var artifact struct {
		TotalCVEs int `json:"total_cves"`
	}
	if err := json.Unmarshal(content, &artifact); err != nil {
		return 0, err
	}
	return artifact.TotalCVEs, nil
}

// summarize renders the per-set tallies into outcome detail text.
func summarize(fetched, skipped int, failures []string) string {
	parts := make([]string, 0, 3)
	if fetched > 0 {
		parts = append(parts, fmt.Sprintf("%d parameter set(s) fetched", fetched))
	}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d already present", skipped))
	}
	if len(failures) > 0 {
		parts = append(parts, fmt.Sprintf("%d failed: %s", len(failures), strings.Join(failures, "; ")))
	}
	return strings.Join(parts, ", ")
}
