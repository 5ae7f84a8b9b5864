// Package progress inspects the base directory and reports per-phase
// download state without performing any network calls.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/secdatalab/secfetch/internal/catalog"
	"github.com/secdatalab/secfetch/internal/dirstat"
	"github.com/secdatalab/secfetch/internal/orchestrator"
)

// PhaseStatus is the on-disk state of one phase directory.
type PhaseStatus struct {
	ID        int
	Name      string
	Dir       string
	Present   bool
	Files     int
	SizeBytes int64

	// Rule counts are collected for the detection-rules phase only.
	YaraRules  int
	SigmaRules int
}

// Report is a point-in-time view of the base directory.
type Report struct {
	BaseDir        string
	Phases         []PhaseStatus
	TotalSizeBytes int64
	LastRun        *orchestrator.RunSummary
}

// Collect walks the phase directories of baseDir and gathers their state.
func Collect(baseDir string) (*Report, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}

	report := &Report{BaseDir: abs}
	for _, p := range catalog.Catalog() {
		status := PhaseStatus{ID: p.ID, Name: p.Name, Dir: p.Dir}
		phaseDir := filepath.Join(abs, p.Dir)
		if info, err := os.Stat(phaseDir); err == nil && info.IsDir() {
			status.Present = true
			status.Files, status.SizeBytes = dirstat.Stats(phaseDir)
			if p.ID == catalog.DetectionRulesPhaseID {
				status.YaraRules = dirstat.CountByExt(phaseDir, ".yar", ".yara")
				status.SigmaRules = dirstat.CountByExt(phaseDir, ".yml", ".yaml")
			}
		}
		report.TotalSizeBytes += status.SizeBytes
		report.Phases = append(report.Phases, status)
	}

	summary, err := orchestrator.ReadSummary(abs)
	if err != nil {
		return nil, err
	}
	report.LastRun = summary

	return report, nil
}

// Render writes a human-readable view of the report.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "Base directory: %s\n", r.BaseDir)
	fmt.Fprintf(w, "Total size:     %s\n\n", dirstat.FormatSize(r.TotalSizeBytes))

	for _, p := range r.Phases {
		if !p.Present {
			fmt.Fprintf(w, "Phase %d: %s - not downloaded\n", p.ID, p.Name)
			continue
		}
		fmt.Fprintf(w, "Phase %d: %s - %d file(s), %s\n",
			p.ID, p.Name, p.Files, dirstat.FormatSize(p.SizeBytes))
		if p.YaraRules > 0 || p.SigmaRules > 0 {
			fmt.Fprintf(w, "         YARA rules: %d, Sigma rules: %d\n",
				p.YaraRules, p.SigmaRules)
		}
	}

	if r.LastRun != nil {
		fmt.Fprintf(w, "\nLast run: %s (%.1fs, finished %s)\n",
			r.LastRun.RunID,
			r.LastRun.TotalElapsedSeconds,
			r.LastRun.FinishedAt.Local().Format("2006-01-02 15:04:05"))
		for _, ph := range r.LastRun.Phases {
			counts := ph.Counts()
			fmt.Fprintf(w, "  phase %d: %d succeeded, %d skipped, %d failed\n",
				ph.PhaseID, counts.Succeeded, counts.Skipped, counts.Failed)
		}
	}
}
