// Package favorites holds the favorites data model: records keyed by a
// canonical URL, datasets of records with their tag vocabulary, and the
// incoming-dataset wrapper used by the merge engine.
package favorites

import "slices"

// Record is one favorited thread.
type Record struct {
	Key           string   `json:"url" yaml:"url"`                       // Canonical URL, identity of the record
	Title         string   `json:"title" yaml:"title"`                   // Human-readable label, may be empty
	Tags          []string `json:"tags" yaml:"tags"`                     // Sorted, deduplicated tag set
	Description   string   `json:"description" yaml:"description"`       // Free text, may be empty
	UserTimestamp string   `json:"user_timestamp" yaml:"user_timestamp"` // Opaque, already formatted
	AddTimestamp  string   `json:"add_timestamp" yaml:"add_timestamp"`   // Opaque, already formatted
}

// Clone returns a copy of the record that shares no memory with r. Nil tags
// stay nil.
func (r Record) Clone() Record {
	c := r
	c.Tags = slices.Clone(r.Tags)
	return c
}

// Normalized returns a clone of r with its tags sorted and deduplicated.
func (r Record) Normalized() Record {
	c := r
	c.Tags = NormalizeTags(r.Tags)
	return c
}

// Equal reports whether two records carry identical values.
// Tags are compared as sets.
func (r Record) Equal(other Record) bool {
	if r.Key != other.Key ||
		r.Title != other.Title ||
		r.Description != other.Description ||
		r.UserTimestamp != other.UserTimestamp ||
		r.AddTimestamp != other.AddTimestamp {
		return false
	}
	a, b := NormalizeTags(r.Tags), NormalizeTags(other.Tags)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
