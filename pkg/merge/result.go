package merge

import (
	"fmt"
	"time"

	"github.com/agentstation/utc"
	"github.com/oklog/ulid/v2"

	"github.com/agentstation/favmerge/pkg/differ"
	"github.com/agentstation/favmerge/pkg/favorites"
	"github.com/agentstation/favmerge/pkg/provenance"
)

// Result represents the outcome of a merge.
type Result struct {
	ID         ulid.ULID          `json:"id" yaml:"id"`
	Dataset    *favorites.Dataset `json:"-" yaml:"-"`
	Sources    []SourceStats      `json:"sources" yaml:"sources"`
	Changeset  *differ.Changeset  `json:"changeset,omitempty" yaml:"changeset,omitempty"`
	Provenance provenance.Map     `json:"-" yaml:"-"`
	StartedAt  utc.Time           `json:"started_at" yaml:"started_at"`
	FinishedAt utc.Time           `json:"finished_at" yaml:"finished_at"`
	Duration   time.Duration      `json:"duration" yaml:"duration"`
}

// SourceStats counts what happened to the records of one incoming dataset.
type SourceStats struct {
	Source    string               `json:"source" yaml:"source"`
	Kind      favorites.SourceKind `json:"kind" yaml:"kind"`
	Records   int                  `json:"records" yaml:"records"`
	Added     int                  `json:"added" yaml:"added"`
	Updated   int                  `json:"updated" yaml:"updated"`
	Unchanged int                  `json:"unchanged" yaml:"unchanged"`
	Conflicts int                  `json:"conflicts" yaml:"conflicts"`
	Resolved  int                  `json:"resolved" yaml:"resolved"`
	TagsAdded int                  `json:"tags_added" yaml:"tags_added"`
}

// NewResult creates a new result with a fresh run ID.
func NewResult() *Result {
	now := utc.Now()
	return &Result{
		ID:         ulid.MustNew(ulid.Timestamp(now.Time), ulid.DefaultEntropy()),
		Sources:    []SourceStats{},
		Provenance: make(provenance.Map),
		StartedAt:  now,
	}
}

// Finalize records completion time and duration.
func (r *Result) Finalize() {
	r.FinishedAt = utc.Now()
	r.Duration = r.FinishedAt.Time.Sub(r.StartedAt.Time)
}

// Totals sums the per-source statistics.
func (r *Result) Totals() SourceStats {
	total := SourceStats{Source: "total"}
	for _, s := range r.Sources {
		total.Records += s.Records
		total.Added += s.Added
		total.Updated += s.Updated
		total.Unchanged += s.Unchanged
		total.Conflicts += s.Conflicts
		total.Resolved += s.Resolved
		total.TagsAdded += s.TagsAdded
	}
	return total
}

// HasChanges returns true if the merge changed the base dataset.
func (r *Result) HasChanges() bool {
	return r.Changeset != nil && r.Changeset.HasChanges()
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	t := r.Totals()
	size := 0
	if r.Dataset != nil {
		size = r.Dataset.Len()
	}
	return fmt.Sprintf("Merged %d files: %d added, %d updated, %d conflicts resolved, %d threads total",
		len(r.Sources), t.Added, t.Updated, t.Resolved, size)
}
