package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secdatalab/secfetch/internal/catalog"
	"github.com/secdatalab/secfetch/internal/config"
	"github.com/secdatalab/secfetch/internal/logging"
	"github.com/secdatalab/secfetch/internal/phase"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		BaseDir: t.TempDir(),
		Git:     config.GitConfig{CloneTimeout: config.Duration(time.Minute)},
		NVD: config.NVDConfig{
			BaseURL:        config.DefaultNVDBaseURL,
			PageSize:       2000,
			RequestTimeout: config.Duration(30 * time.Second),
			MaxRetries:     3,
		},
		Hub: config.HubConfig{
			BaseURL:     config.DefaultHubBaseURL,
			FileTimeout: config.Duration(time.Minute),
		},
	}
	return cfg
}

// offlinePhase is runnable without network: its only resource is live
// malware, which the runner skips unless explicitly allowed.
func offlinePhase() catalog.Phase {
	return catalog.Phase{
		ID:   1,
		Name: "Offline Phase",
		Dir:  "phase1_offline",
		Resources: []catalog.Descriptor{
			{
				Kind:        catalog.KindGit,
				Source:      "https://example.com/samples.git",
				LocalName:   "samples",
				LiveMalware: true,
			},
		},
	}
}

func TestRunUnknownPhase(t *testing.T) {
	orch := New(testConfig(t), logging.NewTestLogger().Logger)

	_, err := orch.Run(context.Background(), Options{PhaseID: 99})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPhase)
}

func TestRunWritesSummary(t *testing.T) {
	cfg := testConfig(t)
	orch := New(cfg, logging.NewTestLogger().Logger)
	orch.phases = []catalog.Phase{offlinePhase()}

	summary, err := orch.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.False(t, summary.StartedAt.IsZero())
	assert.False(t, summary.FinishedAt.IsZero())
	assert.True(t, filepath.IsAbs(summary.BaseDir))
	require.Len(t, summary.Phases, 1)
	assert.Equal(t, phase.Counts{Skipped: 1}, summary.Phases[0].Counts())

	// Summary artifact lands in the base directory.
	content, err := os.ReadFile(filepath.Join(summary.BaseDir, SummaryFile))
	require.NoError(t, err)

	var persisted RunSummary
	require.NoError(t, json.Unmarshal(content, &persisted))
	assert.Equal(t, summary.RunID, persisted.RunID)
	require.Len(t, persisted.Phases, 1)
	assert.Equal(t, 1, persisted.Phases[0].PhaseID)
}

func TestRunOverwritesSummary(t *testing.T) {
	cfg := testConfig(t)
	orch := New(cfg, logging.NewTestLogger().Logger)
	orch.phases = []catalog.Phase{offlinePhase()}

	first, err := orch.Run(context.Background(), Options{})
	require.NoError(t, err)
	second, err := orch.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)

	persisted, err := ReadSummary(second.BaseDir)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, second.RunID, persisted.RunID, "summary reflects the latest run only")
}

func TestRunSinglePhaseSelection(t *testing.T) {
	cfg := testConfig(t)
	orch := New(cfg, logging.NewTestLogger().Logger)

	second := offlinePhase()
	second.ID = 2
	second.Dir = "phase2_offline"
	orch.phases = []catalog.Phase{offlinePhase(), second}

	summary, err := orch.Run(context.Background(), Options{PhaseID: 2})
	require.NoError(t, err)

	require.Len(t, summary.Phases, 1)
	assert.Equal(t, 2, summary.Phases[0].PhaseID)
	assert.NoDirExists(t, filepath.Join(summary.BaseDir, "phase1_offline"))
}

func TestReadSummaryAbsent(t *testing.T) {
	summary, err := ReadSummary(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestReadSummaryCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SummaryFile), []byte("{not json"), 0o644))

	_, err := ReadSummary(dir)
	require.Error(t, err)
}
