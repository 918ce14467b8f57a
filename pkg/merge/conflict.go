package merge

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
)

// Dispute holds the two competing values of one field.
type Dispute struct {
	Base     string `json:"base" yaml:"base"`
	Incoming string `json:"incoming" yaml:"incoming"`
}

// ConflictCase is one record whose title or description disagrees between
// the base and an incoming dataset. A record yields at most one case.
type ConflictCase struct {
	Key      string               // Record key
	Source   string               // Name of the incoming dataset
	Kind     favorites.SourceKind // Kind of the incoming dataset
	Position int                  // 1-based index in the dataset's queue
	Total    int                  // Queue length for the dataset
	Disputes map[Field]Dispute

	// Base is the record as stored when the case was queued, with the
	// undisputed fields already merged. Incoming is the competing record.
	Base     favorites.Record
	Incoming favorites.Record
}

// newConflictCase builds the case for a merge result with conflicts.
func newConflictCase(source favorites.Incoming, base, incoming favorites.Record, fr FieldResult) ConflictCase {
	c := ConflictCase{
		Key:      fr.Merged.Key,
		Source:   source.Name,
		Kind:     source.Kind,
		Disputes: make(map[Field]Dispute, len(fr.Conflicts)),
		Base:     fr.Merged.Clone(),
		Incoming: incoming.Clone(),
	}
	for _, f := range fr.Conflicts {
		c.Disputes[f] = Dispute{Base: f.Value(base), Incoming: f.Value(incoming)}
	}
	return c
}

// Fields returns the disputed fields in display order.
func (c ConflictCase) Fields() []Field {
	var fields []Field
	for _, f := range Fields {
		if _, ok := c.Disputes[f]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// String returns a one-line description of the case.
func (c ConflictCase) String() string {
	names := make([]string, 0, len(c.Disputes))
	for _, f := range c.Fields() {
		names = append(names, f.String())
	}
	return fmt.Sprintf("conflict %d/%d in %s: %s (%s)", c.Position, c.Total, c.Source, c.Key, strings.Join(names, ", "))
}

// Choice selects which side of a dispute wins.
type Choice int

const (
	// ChooseBase keeps the value already in the base dataset.
	ChooseBase Choice = iota
	// ChooseIncoming takes the value from the incoming dataset.
	ChooseIncoming
)

// String returns the choice name.
func (c Choice) String() string {
	switch c {
	case ChooseBase:
		return "base"
	case ChooseIncoming:
		return "incoming"
	}
	return fmt.Sprintf("Choice(%d)", int(c))
}

// ParseChoice parses "base" or "incoming".
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base", "keep", "existing":
		return ChooseBase, nil
	case "incoming", "new", "theirs":
		return ChooseIncoming, nil
	}
	return ChooseBase, errors.NewValidationError("choice", s, "must be base or incoming")
}

// MarshalText implements encoding.TextMarshaler.
func (c Choice) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Choice) UnmarshalText(text []byte) error {
	parsed, err := ParseChoice(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Resolution answers every disputed field of one conflict case.
type Resolution map[Field]Choice

// All returns a resolution that picks choice for every disputed field of c.
func All(c ConflictCase, choice Choice) Resolution {
	r := make(Resolution, len(c.Disputes))
	for f := range c.Disputes {
		r[f] = choice
	}
	return r
}

// validate checks that r answers exactly the disputed fields of c.
func (r Resolution) validate(c ConflictCase) error {
	for _, f := range c.Fields() {
		choice, ok := r[f]
		if !ok {
			return errors.NewValidationError(f.String(), nil, "no answer for disputed field")
		}
		if choice != ChooseBase && choice != ChooseIncoming {
			return errors.NewValidationError(f.String(), choice, "unknown choice")
		}
	}
	for _, f := range slices.Sorted(maps.Keys(r)) {
		if _, ok := c.Disputes[f]; !ok {
			return errors.NewValidationError(f.String(), r[f], "field is not disputed")
		}
	}
	return nil
}

// apply writes the chosen values into rec.
func (r Resolution) apply(c ConflictCase, rec *favorites.Record) {
	for _, f := range c.Fields() {
		d := c.Disputes[f]
		if r[f] == ChooseIncoming {
			f.set(rec, d.Incoming)
		} else {
			f.set(rec, d.Base)
		}
	}
}
