// Package phase executes one declared batch of resources and records the
// per-resource outcomes.
//
// Resources run strictly in declaration order with no parallelism; a failed
// resource never stops the phase. The runner owns the Outcome records it
// creates and persists one Result artifact per phase, overwritten on re-run.
package phase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/secdatalab/secfetch/internal/catalog"
	"github.com/secdatalab/secfetch/internal/logging"
)

// Fetcher acquires a single resource into targetDir. Implementations catch
// all resource-local errors and convert them into a Failed outcome; they
// never return errors to the runner.
type Fetcher interface {
	Fetch(ctx context.Context, desc catalog.Descriptor, targetDir string, update bool) Outcome
}

// Runner executes the resources of one phase.
type Runner struct {
	fetchers         map[catalog.Kind]Fetcher
	log              *logging.Logger
	allowLiveMalware bool
}

// NewRunner creates a phase runner dispatching to the given fetchers.
func NewRunner(gitFetcher, apiFetcher, hubFetcher Fetcher, log *logging.Logger, allowLiveMalware bool) *Runner {
	if log == nil {
		log = logging.NewNop()
	}
	return &Runner{
		fetchers: map[catalog.Kind]Fetcher{
			catalog.KindGit: gitFetcher,
			catalog.KindAPI: apiFetcher,
			catalog.KindHub: hubFetcher,
		},
		log:              log,
		allowLiveMalware: allowLiveMalware,
	}
}

// Run fetches every resource of the phase in declaration order and writes
// the phase result artifact into the phase directory.
//
// The returned error is run-level only (phase directory cannot be created,
// result cannot be persisted); individual resource failures are recorded in
// the result and never abort the phase.
func (r *Runner) Run(ctx context.Context, p catalog.Phase, baseDir string, update bool) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid phase: %w", err)
	}

	phaseDir := filepath.Join(baseDir, p.Dir)
	if err := os.MkdirAll(phaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating phase directory: %w", err)
	}

	ctx = logging.WithPhaseID(ctx, p.ID)
	r.log.Info(ctx, "phase started",
		zap.String("name", p.Name),
		zap.Int("resources", len(p.Resources)),
		zap.Bool("update", update),
	)

	result := &Result{
		PhaseID:   p.ID,
		Name:      p.Name,
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]Outcome, 0, len(p.Resources)),
	}

	for _, desc := range p.Resources {
		result.Outcomes = append(result.Outcomes, r.fetchOne(ctx, desc, phaseDir, update))
	}

	result.FinishedAt = time.Now().UTC()

	counts := result.Counts()
	r.log.Info(ctx, "phase finished",
		zap.Int("succeeded", counts.Succeeded),
		zap.Int("skipped", counts.Skipped),
		zap.Int("failed", counts.Failed),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)

	if err := writeResult(phaseDir, p.ID, result); err != nil {
		return nil, fmt.Errorf("persisting phase result: %w", err)
	}

	return result, nil
}

func (r *Runner) fetchOne(ctx context.Context, desc catalog.Descriptor, phaseDir string, update bool) Outcome {
	ctx = logging.WithResource(ctx, desc.LocalName)

	if desc.LiveMalware && !r.allowLiveMalware {
		r.log.Warn(ctx, "skipping live-malware resource; pass --allow-live-malware to fetch")
		return Outcome{
			Name:   desc.LocalName,
			Kind:   desc.Kind,
			Source: desc.Source,
			Status: StatusSkipped,
			Detail: "live malware samples not allowed",
		}
	}

	fetcher, ok := r.fetchers[desc.Kind]
	if !ok || fetcher == nil {
		return Outcome{
			Name:   desc.LocalName,
			Kind:   desc.Kind,
			Source: desc.Source,
			Status: StatusFailed,
			Detail: fmt.Sprintf("no fetcher for kind %q", desc.Kind),
		}
	}

	out := fetcher.Fetch(ctx, desc, desc.TargetPath(phaseDir), update)
	switch out.Status {
	case StatusFailed:
		r.log.Warn(ctx, "resource failed", zap.String("detail", out.Detail))
	default:
		r.log.Info(ctx, "resource done",
			zap.String("status", string(out.Status)),
			zap.Int64("size_bytes", out.SizeBytes),
		)
	}
	return out
}

// writeResult persists the phase result artifact, overwriting any previous
// run's file.
func writeResult(phaseDir string, phaseID int, result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	path := filepath.Join(phaseDir, fmt.Sprintf("phase%d_results.json", phaseID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
