// Package orchestrator runs the dataset phases in order and produces the
// run summary.
//
// Resource failures are contained inside phase results; Run only returns
// an error when a requested phase cannot be run at all (unknown phase id,
// base directory not writable, result not persistable).
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/secdatalab/secfetch/internal/catalog"
	"github.com/secdatalab/secfetch/internal/config"
	"github.com/secdatalab/secfetch/internal/dirstat"
	"github.com/secdatalab/secfetch/internal/gitfetch"
	"github.com/secdatalab/secfetch/internal/hub"
	"github.com/secdatalab/secfetch/internal/logging"
	"github.com/secdatalab/secfetch/internal/nvd"
	"github.com/secdatalab/secfetch/internal/phase"
	"github.com/secdatalab/secfetch/internal/ratelimit"
)

// SummaryFile is the run summary artifact name under the base directory.
const SummaryFile = "download_summary.json"

// ErrUnknownPhase is returned when the requested phase id does not exist.
var ErrUnknownPhase = errors.New("unknown phase")

// Options selects what a run covers.
type Options struct {
	// PhaseID selects a single phase; zero means all phases.
	PhaseID int

	// Update refreshes resources that are already present.
	Update bool

	// AllowLiveMalware enables fetching of live-malware repositories.
	AllowLiveMalware bool
}

// RunSummary is the session-level record persisted once per run. It
// represents the whole session, not cumulative history.
type RunSummary struct {
	RunID               string         `json:"run_id"`
	StartedAt           time.Time      `json:"started_at"`
	FinishedAt          time.Time      `json:"finished_at"`
	TotalElapsedSeconds float64        `json:"total_elapsed_seconds"`
	BaseDir             string         `json:"base_directory"`
	TotalDiskUsageBytes int64          `json:"total_disk_usage_bytes"`
	Phases              []phase.Result `json:"phases"`
}

// Orchestrator wires the fetchers and runs phases in fixed ascending order.
type Orchestrator struct {
	cfg    *config.Config
	log    *logging.Logger
	phases []catalog.Phase
}

// New creates an orchestrator over the built-in catalog.
func New(cfg *config.Config, log *logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Orchestrator{
		cfg:    cfg,
		log:    log,
		phases: catalog.Catalog(),
	}
}

// Run executes the selected phase(s) and writes the run summary artifact.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*RunSummary, error) {
	selected, err := o.selectPhases(opts.PhaseID)
	if err != nil {
		return nil, err
	}

	baseDir, err := filepath.Abs(o.cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	o.log.Info(ctx, "run started",
		zap.String("base_dir", baseDir),
		zap.Int("phases", len(selected)),
		zap.Bool("update", opts.Update),
		zap.Bool("api_key_present", o.cfg.NVD.APIKey != ""),
	)

	runner := o.newRunner(opts.AllowLiveMalware)
	started := time.Now()

	summary := &RunSummary{
		RunID:     runID,
		StartedAt: started.UTC(),
		BaseDir:   baseDir,
		Phases:    make([]phase.Result, 0, len(selected)),
	}

	for _, p := range selected {
		result, err := runner.Run(ctx, p, baseDir, opts.Update)
		if err != nil {
			return nil, fmt.Errorf("phase %d: %w", p.ID, err)
		}
		summary.Phases = append(summary.Phases, *result)
	}

	summary.FinishedAt = time.Now().UTC()
	summary.TotalElapsedSeconds = time.Since(started).Seconds()
	summary.TotalDiskUsageBytes = dirstat.Size(baseDir)

	if err := writeSummary(baseDir, summary); err != nil {
		return nil, err
	}

	o.log.Info(ctx, "run finished",
		zap.Float64("elapsed_seconds", summary.TotalElapsedSeconds),
		zap.Int64("disk_usage_bytes", summary.TotalDiskUsageBytes),
	)

	return summary, nil
}

// newRunner builds the phase runner with one rate limiter instance shared
// by all API fetches of the run.
func (o *Orchestrator) newRunner(allowLiveMalware bool) *phase.Runner {
	limiter := ratelimit.ForAPIKey(o.cfg.NVD.APIKey.Value())
	apiClient := nvd.NewClient(o.cfg.NVD, limiter, o.log.Named("nvd"))

	return phase.NewRunner(
		gitfetch.New(o.cfg.Git.CloneTimeout.Duration(), o.log.Named("git")),
		nvd.NewFetcher(apiClient, o.cfg.NVD.PageSize, o.log.Named("nvd")),
		hub.New(o.cfg.Hub, o.log.Named("hub")),
		o.log.Named("phase"),
		allowLiveMalware,
	)
}

// selectPhases resolves the phase selection in ascending order.
func (o *Orchestrator) selectPhases(phaseID int) ([]catalog.Phase, error) {
	if phaseID == 0 {
		return o.phases, nil
	}
	for _, p := range o.phases {
		if p.ID == phaseID {
			return []catalog.Phase{p}, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownPhase, phaseID)
}

// writeSummary persists the run summary, overwriting the previous run's.
func writeSummary(baseDir string, summary *RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	path := filepath.Join(baseDir, SummaryFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run summary: %w", err)
	}
	return nil
}

// ReadSummary loads the last run summary from the base directory.
// Returns nil without error if none exists.
func ReadSummary(baseDir string) (*RunSummary, error) {
	path := filepath.Join(baseDir, SummaryFile)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading run summary: %w", err)
	}
	var summary RunSummary
	if err := json.Unmarshal(content, &summary); err != nil {
		return nil, fmt.Errorf("parsing run summary: %w", err)
	}
	return &summary, nil
}
