// Package probe classifies local fetch targets without touching the network.
//
// Presence on disk is the source of truth for resumability: fetchers consult
// the probe before any network operation and skip targets that are already
// valid. An invalid remnant (interrupted clone, truncated artifact) is never
// left half-populated; fetchers remove it and fetch fresh.
package probe

import (
	"encoding/json"
	"os"

	git "github.com/go-git/go-git/v5"
)

// State classifies a local target path.
type State int

const (
	// Absent means the path does not exist.
	Absent State = iota

	// Valid means the path exists and passed the validity check.
	Valid

	// Invalid means the path exists but is incomplete or corrupt.
	Invalid
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Valid:
		return "present-valid"
	case Invalid:
		return "present-invalid"
	default:
		return "unknown"
	}
}

// Repo classifies a git clone target. Valid requires an openable repository
// with a resolvable HEAD, so an interrupted clone that left a bare directory
// or a broken .git counts as Invalid.
func Repo(path string) State {
	info, err := os.Stat(path)
	if err != nil {
		return Absent
	}
	if !info.IsDir() {
		return Invalid
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		return Invalid
	}
	if _, err := repo.Head(); err != nil {
		return Invalid
	}
	return Valid
}

// Snapshot classifies a dataset snapshot target. Any non-empty directory is
// Valid; the snapshot's internal format is opaque to secfetch.
func Snapshot(path string) State {
	info, err := os.Stat(path)
	if err != nil {
		return Absent
	}
	if !info.IsDir() {
		return Invalid
	}

	entries, err := os.ReadDir(path)
	if err != nil || len(entries) == 0 {
		return Invalid
	}
	return Valid
}

// Artifact classifies a JSON artifact file. Valid requires the file to parse
// as a JSON object, so a truncated write counts as Invalid.
func Artifact(path string) State {
	info, err := os.Stat(path)
	if err != nil {
		return Absent
	}
	if info.IsDir() || info.Size() == 0 {
		return Invalid
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Invalid
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(content, &obj); err != nil {
		return Invalid
	}
	return Valid
}
