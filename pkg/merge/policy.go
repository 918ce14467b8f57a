// Package merge reconciles incoming favorites datasets into a base dataset.
//
// Records are matched by key. New keys are appended, matching keys are merged
// field by field through a fixed rule table, and genuine disagreements on
// free-text fields are queued as conflict cases and handed, one at a time, to
// an injected Resolver.
package merge

import (
	"github.com/agentstation/favmerge/pkg/favorites"
)

// Field names a record field that can be disputed.
type Field string

const (
	// FieldTitle is the record title.
	FieldTitle Field = "title"
	// FieldDescription is the record description.
	FieldDescription Field = "description"
)

// Fields lists the disputable fields in display order.
var Fields = []Field{FieldTitle, FieldDescription}

// String returns the field name.
func (f Field) String() string {
	return string(f)
}

// Value returns the value of f in r.
func (f Field) Value(r favorites.Record) string {
	switch f {
	case FieldTitle:
		return r.Title
	case FieldDescription:
		return r.Description
	}
	return ""
}

// set writes v into the field f of r.
func (f Field) set(r *favorites.Record, v string) {
	switch f {
	case FieldTitle:
		r.Title = v
	case FieldDescription:
		r.Description = v
	}
}

// FieldSet is an ordered set of disputed fields.
type FieldSet []Field

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	for _, x := range s {
		if x == f {
			return true
		}
	}
	return false
}

// FieldResult is the outcome of merging two versions of one record.
// Disputed fields keep the base value in Merged until resolved.
type FieldResult struct {
	Merged    favorites.Record
	Conflicts FieldSet
}

// HasConflicts reports whether any field needs resolution.
func (r FieldResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// fieldRule merges one field of incoming into merged, which starts as a copy
// of the base record. It reports whether the field is in genuine conflict.
type fieldRule struct {
	name  string
	field Field // set for fields that can conflict
	apply func(merged *favorites.Record, incoming favorites.Record, kind favorites.SourceKind) bool
}

// fieldRules is the merge policy. Fields absent from the table (the key)
// are never touched.
var fieldRules = []fieldRule{
	{name: "title", field: FieldTitle, apply: mergeTitle},
	{name: "description", field: FieldDescription, apply: mergeDescription},
	{name: "tags", apply: mergeTags},
	{name: "user_timestamp", apply: mergeUserTimestamp},
	{name: "add_timestamp", apply: mergeAddTimestamp},
}

// MergeFields applies the field policy to a base record and an incoming
// record with the same key. It is pure: neither argument is modified.
func MergeFields(base, incoming favorites.Record, kind favorites.SourceKind) FieldResult {
	merged := base.Normalized()
	var conflicts FieldSet
	for _, rule := range fieldRules {
		if rule.apply(&merged, incoming, kind) && rule.field != "" {
			conflicts = append(conflicts, rule.field)
		}
	}
	return FieldResult{Merged: merged, Conflicts: conflicts}
}

// mergeText is the fill-if-empty rule shared by title and description.
func mergeText(base, incoming string) (string, bool) {
	switch {
	case base == incoming:
		return base, false
	case base == "":
		return incoming, false
	case incoming == "":
		return base, false
	default:
		return base, true
	}
}

// Authoritative sources re-derive titles from the live page, so their title
// always replaces the stored one, even with an empty string.
func mergeTitle(merged *favorites.Record, incoming favorites.Record, kind favorites.SourceKind) bool {
	if kind == favorites.Authoritative {
		merged.Title = incoming.Title
		return false
	}
	var conflict bool
	merged.Title, conflict = mergeText(merged.Title, incoming.Title)
	return conflict
}

func mergeDescription(merged *favorites.Record, incoming favorites.Record, _ favorites.SourceKind) bool {
	var conflict bool
	merged.Description, conflict = mergeText(merged.Description, incoming.Description)
	return conflict
}

func mergeTags(merged *favorites.Record, incoming favorites.Record, _ favorites.SourceKind) bool {
	merged.Tags = favorites.UnionTags(merged.Tags, incoming.Tags)
	return false
}

func mergeUserTimestamp(merged *favorites.Record, incoming favorites.Record, _ favorites.SourceKind) bool {
	merged.UserTimestamp = firstNonEmpty(merged.UserTimestamp, incoming.UserTimestamp)
	return false
}

func mergeAddTimestamp(merged *favorites.Record, incoming favorites.Record, _ favorites.SourceKind) bool {
	merged.AddTimestamp = firstNonEmpty(merged.AddTimestamp, incoming.AddTimestamp)
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
