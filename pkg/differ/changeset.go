// Package differ provides functionality for comparing datasets and detecting changes.
package differ

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentstation/favmerge/pkg/favorites"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates an item was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates an item was updated.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates an item was removed.
	ChangeTypeRemove ChangeType = "remove"
)

// FieldChange represents a change to a specific field.
type FieldChange struct {
	Path     string     `json:"path" yaml:"path"`           // Field name (e.g., "title", "tags")
	OldValue string     `json:"old_value" yaml:"old_value"` // Previous value (string representation)
	NewValue string     `json:"new_value" yaml:"new_value"` // New value (string representation)
	Type     ChangeType `json:"type" yaml:"type"`
}

// RecordUpdate represents an update to an existing record.
type RecordUpdate struct {
	Key      string           `json:"url" yaml:"url"`
	Existing favorites.Record `json:"-" yaml:"-"`
	New      favorites.Record `json:"-" yaml:"-"`
	Changes  []FieldChange    `json:"changes" yaml:"changes"`
}

// Changeset represents all changes between two datasets.
type Changeset struct {
	Added       []favorites.Record `json:"added" yaml:"added"`
	Updated     []RecordUpdate     `json:"updated" yaml:"updated"`
	Removed     []favorites.Record `json:"removed" yaml:"removed"`
	TagsAdded   []string           `json:"tags_added" yaml:"tags_added"`
	TagsRemoved []string           `json:"tags_removed" yaml:"tags_removed"`
	Summary     ChangesetSummary   `json:"summary" yaml:"summary"`
}

// ChangesetSummary provides summary statistics for a changeset.
type ChangesetSummary struct {
	RecordsAdded   int `json:"records_added" yaml:"records_added"`
	RecordsUpdated int `json:"records_updated" yaml:"records_updated"`
	RecordsRemoved int `json:"records_removed" yaml:"records_removed"`
	TagsAdded      int `json:"tags_added" yaml:"tags_added"`
	TagsRemoved    int `json:"tags_removed" yaml:"tags_removed"`
	TotalChanges   int `json:"total_changes" yaml:"total_changes"`
}

// HasChanges returns true if the changeset contains any changes.
func (c *Changeset) HasChanges() bool {
	return c.Summary.TotalChanges > 0
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return c.Summary.TotalChanges == 0
}

// calculateSummary computes the summary for a changeset.
func calculateSummary(c *Changeset) ChangesetSummary {
	s := ChangesetSummary{
		RecordsAdded:   len(c.Added),
		RecordsUpdated: len(c.Updated),
		RecordsRemoved: len(c.Removed),
		TagsAdded:      len(c.TagsAdded),
		TagsRemoved:    len(c.TagsRemoved),
	}
	s.TotalChanges = s.RecordsAdded + s.RecordsUpdated + s.RecordsRemoved + s.TagsAdded + s.TagsRemoved
	return s
}

// String returns a human-readable summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}

	var parts []string
	if n := len(c.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("%d added", n))
	}
	if n := len(c.Updated); n > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", n))
	}
	if n := len(c.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", n))
	}
	if n := len(c.TagsAdded); n > 0 {
		parts = append(parts, fmt.Sprintf("%d new tags", n))
	}
	if n := len(c.TagsRemoved); n > 0 {
		parts = append(parts, fmt.Sprintf("%d tags dropped", n))
	}

	return fmt.Sprintf("Changeset: %s (Total: %d changes)", strings.Join(parts, ", "), c.Summary.TotalChanges)
}

// Print writes a detailed, human-readable view of the changeset to w.
func (c *Changeset) Print(w io.Writer) {
	fmt.Fprintln(w, c.String())
	fmt.Fprintln(w, strings.Repeat("─", 80))

	if len(c.Added) > 0 {
		fmt.Fprintf(w, "\n➕ Added Threads (%d):\n", len(c.Added))
		for _, r := range c.Added {
			fmt.Fprintf(w, "  • %s", r.Key)
			if r.Title != "" {
				fmt.Fprintf(w, " (%s)", r.Title)
			}
			fmt.Fprintln(w)
		}
	}

	if len(c.Updated) > 0 {
		fmt.Fprintf(w, "\n🔄 Updated Threads (%d):\n", len(c.Updated))
		for _, update := range c.Updated {
			fmt.Fprintf(w, "  • %s:\n", update.Key)
			for _, change := range update.Changes {
				fmt.Fprintf(w, "    - %s: %s → %s\n", change.Path, change.OldValue, change.NewValue)
			}
		}
	}

	if len(c.Removed) > 0 {
		fmt.Fprintf(w, "\n⚠️  Removed Threads (%d):\n", len(c.Removed))
		for _, r := range c.Removed {
			fmt.Fprintf(w, "  • %s\n", r.Key)
		}
	}

	if len(c.TagsAdded) > 0 {
		fmt.Fprintf(w, "\n🏷  New Tags (%d): %s\n", len(c.TagsAdded), strings.Join(c.TagsAdded, ", "))
	}
}
