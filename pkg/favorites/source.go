package favorites

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SourceKind tells the merge engine whether titles from a dataset are authoritative.
type SourceKind string

// String returns the string representation of a source kind.
func (k SourceKind) String() string {
	return string(k)
}

// Name returns the title-cased name of the source kind for display.
func (k SourceKind) Name() string {
	return cases.Title(language.English).String(string(k))
}

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	return k == Advisory || k == Authoritative
}

const (
	// Advisory sources (prior database exports) never override a non-empty title.
	Advisory SourceKind = "advisory"
	// Authoritative sources (markup re-exports that re-derive titles from the
	// live page) always override the title.
	Authoritative SourceKind = "authoritative"
)

// Incoming is a dataset to be merged into a base, with its provenance.
// The merge engine never mutates Dataset.
type Incoming struct {
	Name    string     // File name or label used in logs, errors and reports
	Kind    SourceKind // Whether titles from this dataset are authoritative
	Dataset *Dataset
}

// NewIncoming wraps a dataset for merging.
func NewIncoming(name string, kind SourceKind, d *Dataset) Incoming {
	return Incoming{Name: name, Kind: kind, Dataset: d}
}
