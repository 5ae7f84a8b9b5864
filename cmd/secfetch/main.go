// Package main implements the secfetch CLI for downloading cybersecurity
// training datasets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/secdatalab/secfetch/internal/config"
	"github.com/secdatalab/secfetch/internal/logging"
	"github.com/secdatalab/secfetch/internal/orchestrator"
	"github.com/secdatalab/secfetch/internal/phase"
	"github.com/secdatalab/secfetch/internal/progress"
)

var (
	// flags shared across commands
	configFile string
	baseDir    string

	// fetch command flags
	phaseID          int
	update           bool
	allowLiveMalware bool

	// version information, set at build time
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "secfetch",
	Short: "Download and maintain cybersecurity training datasets",
	Long: `secfetch downloads CTF writeups, exploit databases, detection rules,
the NVD CVE database and threat-intelligence datasets into a local
directory tree. Runs are resumable: resources already on disk are
skipped unless --update is given.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&baseDir, "dir", "", "base directory for downloaded datasets")

	fetchCmd.Flags().IntVar(&phaseID, "phase", 0, "run a single phase (1-5); 0 runs all phases")
	fetchCmd.Flags().BoolVar(&update, "update", false, "refresh resources that are already present")
	fetchCmd.Flags().BoolVar(&allowLiveMalware, "allow-live-malware", false, "fetch repositories containing live malware samples")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// fetchCmd runs the download phases
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download datasets phase by phase",
	Long: `Download all phases, or a single phase selected with --phase.

Examples:
  # Download everything
  secfetch fetch

  # Download only the CVE database
  secfetch fetch --phase 4

  # Refresh previously downloaded resources
  secfetch fetch --update`,
	RunE: runFetch,
}

// statusCmd reports on-disk progress without touching the network
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show download progress and disk usage",
	RunE:  runStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the secfetch version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("secfetch %s\n", version)
	},
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if phaseID < 0 {
		return fmt.Errorf("invalid phase %d", phaseID)
	}

	log, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	orch := orchestrator.New(cfg, log)
	summary, err := orch.Run(cmd.Context(), orchestrator.Options{
		PhaseID:          phaseID,
		Update:           update,
		AllowLiveMalware: allowLiveMalware,
	})
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report, err := progress.Collect(cfg.BaseDir)
	if err != nil {
		return err
	}
	report.Render(os.Stdout)
	return nil
}

// loadConfig loads the configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile(configFile)
	if err != nil {
		return nil, err
	}
	if baseDir != "" {
		cfg.BaseDir = baseDir
	}
	return cfg, nil
}

// printSummary writes the human-readable run recap to stdout.
func printSummary(summary *orchestrator.RunSummary) {
	fmt.Printf("\nRun %s finished in %.1fs\n", summary.RunID, summary.TotalElapsedSeconds)
	fmt.Printf("Base directory: %s\n", summary.BaseDir)

	var failed int
	for _, result := range summary.Phases {
		counts := result.Counts()
		failed += counts.Failed
		fmt.Printf("  phase %d (%s): %d succeeded, %d skipped, %d failed\n",
			result.PhaseID, result.Name, counts.Succeeded, counts.Skipped, counts.Failed)
		for _, outcome := range result.Outcomes {
			if outcome.Status == phase.StatusFailed {
				fmt.Printf("    FAILED %s: %s\n", outcome.Name, outcome.Detail)
			}
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d resource(s) failed; rerun to retry them.\n", failed)
	}
}
