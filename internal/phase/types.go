package phase

import (
	"encoding/json"
	"time"

	"github.com/secdatalab/secfetch/internal/catalog"
)

// Status is the terminal state of one resource fetch.
type Status string

const (
	// StatusDownloaded means the resource was freshly acquired.
	StatusDownloaded Status = "downloaded"

	// StatusSkipped means the resource was already present and valid;
	// no network call was made.
	StatusSkipped Status = "already_present"

	// StatusUpdated means an existing resource was refreshed in update mode.
	StatusUpdated Status = "updated"

	// StatusFailed means the fetch failed; Detail carries the error text.
	StatusFailed Status = "failed"
)

// Outcome records the result of fetching one declared resource. It is
// created once per resource per run and never mutated afterwards.
type Outcome struct {
	Name      string       `json:"name"`
	Kind      catalog.Kind `json:"kind"`
	Source    string       `json:"source,omitempty"`
	Status    Status       `json:"status"`
	Detail    string       `json:"detail,omitempty"`
	SizeBytes int64        `json:"size_bytes,omitempty"`
}

// Counts aggregates outcome statuses for a phase.
type Counts struct {
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Result is the record of one phase run. Outcomes appear in declaration
// order regardless of individual failures.
type Result struct {
	PhaseID    int       `json:"phase"`
	Name       string    `json:"name"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Counts derives status totals from the outcomes. Downloaded and Updated
// count as succeeded.
func (r *Result) Counts() Counts {
	var c Counts
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusDownloaded, StatusUpdated:
			c.Succeeded++
		case StatusSkipped:
			c.Skipped++
		case StatusFailed:
			c.Failed++
		}
	}
	return c
}

// MarshalJSON adds the derived counts to the persisted form. Counts are
// always recomputed from outcomes, never stored independently.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		alias
		Counts Counts `json:"counts"`
	}{
		alias:  alias(r),
		Counts: r.Counts(),
	})
}
