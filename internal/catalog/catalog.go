// Package catalog declares the external resources secfetch acquires.
//
// Resources are plain immutable value records tagged by Kind; the phase
// runner dispatches on Kind to the matching fetcher. The built-in catalog
// mirrors the curated dataset lists the project ships with: five phases
// of git repositories, NVD CVE API queries and Hugging Face dataset
// snapshots.
package catalog

import (
	"fmt"
	"path/filepath"
)

// Kind identifies how a resource is acquired.
type Kind string

const (
	// KindGit is a public git repository, shallow-cloned.
	KindGit Kind = "git"

	// KindAPI is a paginated REST query against the NVD CVE API.
	KindAPI Kind = "api"

	// KindHub is a Hugging Face dataset snapshot.
	KindHub Kind = "hub"
)

// QueryParams is one NVD query parameter set. Exactly one of Year or
// ModifiedWithinDays is set: a year selects a publication-date range,
// ModifiedWithinDays selects a trailing last-modified window.
type QueryParams struct {
	Year               int `json:"year,omitempty"`
	ModifiedWithinDays int `json:"modified_within_days,omitempty"`
}

// ArtifactName is the on-disk file name for this parameter set's records.
func (q QueryParams) ArtifactName() string {
	if q.Year != 0 {
		return fmt.Sprintf("cve_%d.json", q.Year)
	}
	return "cve_recent_modified.json"
}

// Label is a short human-readable name for log lines and outcome detail.
func (q QueryParams) Label() string {
	if q.Year != 0 {
		return fmt.Sprintf("year %d", q.Year)
	}
	return fmt.Sprintf("modified last %d days", q.ModifiedWithinDays)
}

// Descriptor declares one external resource to fetch.
type Descriptor struct {
	// Kind selects the fetcher.
	Kind Kind `json:"kind"`

	// Source is the git remote URL, the hub dataset ID, or empty for
	// API resources (the endpoint comes from configuration).
	Source string `json:"source,omitempty"`

	// LocalName is the directory (or artifact set) name under the
	// phase directory. Unique within a phase.
	LocalName string `json:"local_name"`

	// Subdir optionally groups the resource under a phase sub-tree,
	// e.g. "ctf_writeups" or "yara_rules".
	Subdir string `json:"subdir,omitempty"`

	// LiveMalware marks repositories containing live malware samples.
	// These are skipped unless explicitly allowed.
	LiveMalware bool `json:"live_malware,omitempty"`

	// Params holds the query parameter sets for API resources.
	Params []QueryParams `json:"params,omitempty"`
}

// TargetPath returns the resource's location under the phase directory.
func (d Descriptor) TargetPath(phaseDir string) string {
	if d.Subdir != "" {
		return filepath.Join(phaseDir, d.Subdir, d.LocalName)
	}
	return filepath.Join(phaseDir, d.LocalName)
}

// Phase is a named, ordered batch of resources.
type Phase struct {
	ID        int
	Name      string
	Dir       string
	Resources []Descriptor
}

// Validate checks phase invariants: non-empty identity and unique,
// non-empty resource local names.
func (p Phase) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("phase id must be positive, got %d", p.ID)
	}
	if p.Name == "" || p.Dir == "" {
		return fmt.Errorf("phase %d: name and dir are required", p.ID)
	}
	seen := make(map[string]bool, len(p.Resources))
	for _, r := range p.Resources {
		if r.LocalName == "" {
			return fmt.Errorf("phase %d: resource with empty local name", p.ID)
		}
		key := filepath.Join(r.Subdir, r.LocalName)
		if seen[key] {
			return fmt.Errorf("phase %d: duplicate resource %q", p.ID, key)
		}
		seen[key] = true
		switch r.Kind {
		case KindGit, KindHub:
			if r.Source == "" {
				return fmt.Errorf("phase %d: resource %q requires a source", p.ID, r.LocalName)
			}
		case KindAPI:
			if len(r.Params) == 0 {
				return fmt.Errorf("phase %d: API resource %q requires query params", p.ID, r.LocalName)
			}
		default:
			return fmt.Errorf("phase %d: resource %q has unknown kind %q", p.ID, r.LocalName, r.Kind)
		}
	}
	return nil
}

// PhaseByID returns the built-in phase with the given ID.
func PhaseByID(id int) (Phase, bool) {
	for _, p := range Catalog() {
		if p.ID == id {
			return p, true
		}
	}
	return Phase{}, false
}
