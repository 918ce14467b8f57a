package favorites

import (
	"fmt"

	"github.com/agentstation/favmerge/pkg/errors"
)

// Dataset is a collection of records plus the vocabulary of known tags.
//
// Records keep their insertion order so that serialized output is stable.
// Key lookups go through an index kept current by Put. Code that edits
// Records directly must call Validate (or Reindex) before the next lookup;
// only appends and removals are detected on their own.
type Dataset struct {
	Tags    []string `json:"tags" yaml:"tags"`       // Tag vocabulary, sorted
	Records []Record `json:"threads" yaml:"threads"` // Records in insertion order

	index map[string]int
}

// New creates an empty dataset.
func New() *Dataset {
	return &Dataset{
		Tags:    []string{},
		Records: []Record{},
	}
}

// NewDataset creates a dataset from records and a tag vocabulary. Record
// tags are normalized; the vocabulary is normalized but not extended, so an
// input that references unknown tags stays detectable through Validate.
func NewDataset(records []Record, tags []string) *Dataset {
	d := &Dataset{
		Tags:    NormalizeTags(tags),
		Records: make([]Record, 0, len(records)),
	}
	for _, r := range records {
		d.Records = append(d.Records, r.Normalized())
	}
	return d
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Has reports whether a record with key exists.
func (d *Dataset) Has(key string) bool {
	_, ok := d.lookup(key)
	return ok
}

// Get returns a copy of the record stored under key.
func (d *Dataset) Get(key string) (Record, bool) {
	i, ok := d.lookup(key)
	if !ok {
		return Record{}, false
	}
	return d.Records[i].Clone(), true
}

// Put inserts r, or replaces the record with the same key in place. The
// record's tags are normalized and added to the vocabulary so the dataset
// invariant holds after every Put.
func (d *Dataset) Put(r Record) {
	r = r.Normalized()
	d.AddTags(r.Tags...)

	if i, ok := d.lookup(r.Key); ok {
		d.Records[i] = r
		return
	}
	d.Records = append(d.Records, r)
	if d.index != nil {
		d.index[r.Key] = len(d.Records) - 1
	}
}

// AddTags unions tags into the vocabulary and returns how many were new.
func (d *Dataset) AddTags(tags ...string) int {
	before := NormalizeTags(d.Tags)
	d.Tags = UnionTags(before, tags)
	return len(d.Tags) - len(before)
}

// Keys returns the record keys in insertion order.
func (d *Dataset) Keys() []string {
	keys := make([]string, len(d.Records))
	for i, r := range d.Records {
		keys[i] = r.Key
	}
	return keys
}

// Validate checks the dataset invariants: keys are unique and every tag a
// record references is in the vocabulary. All problems are collected into a
// single MalformedInputError labelled with source.
func (d *Dataset) Validate(source string) error {
	var problems []string
	vocabulary := NormalizeTags(d.Tags)
	seen := make(map[string]int, len(d.Records))

	for i, r := range d.Records {
		if r.Key == "" {
			problems = append(problems, fmt.Sprintf("record %d has an empty key", i+1))
			continue
		}
		if first, dup := seen[r.Key]; dup {
			problems = append(problems, fmt.Sprintf("duplicate key %s (records %d and %d)", r.Key, first+1, i+1))
		} else {
			seen[r.Key] = i
		}
		for _, tag := range MissingTags(vocabulary, r.Tags) {
			problems = append(problems, fmt.Sprintf("record %s uses tag %q missing from vocabulary", r.Key, tag))
		}
	}

	if len(problems) > 0 {
		return errors.NewMalformedInputError(source, problems)
	}
	d.Reindex()
	return nil
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		Tags:    append([]string{}, d.Tags...),
		Records: make([]Record, len(d.Records)),
	}
	for i, r := range d.Records {
		c.Records[i] = r.Clone()
	}
	return c
}

// Restore replaces the contents of d with a deep copy of snapshot, keeping
// the identity of d so that callers holding the pointer see the restored state.
func (d *Dataset) Restore(snapshot *Dataset) {
	c := snapshot.Clone()
	d.Tags = c.Tags
	d.Records = c.Records
	d.index = nil
}

// lookup finds the position of key, rebuilding the index when Records has
// been modified directly.
func (d *Dataset) lookup(key string) (int, bool) {
	if d.index == nil || len(d.index) != len(d.Records) {
		d.Reindex()
	}
	i, ok := d.index[key]
	if ok && (i >= len(d.Records) || d.Records[i].Key != key) {
		d.Reindex()
		i, ok = d.index[key]
	}
	return i, ok
}

// Reindex rebuilds the key index from Records. The first occurrence of a
// key wins.
func (d *Dataset) Reindex() {
	d.index = make(map[string]int, len(d.Records))
	for i, r := range d.Records {
		if _, exists := d.index[r.Key]; !exists {
			d.index[r.Key] = i
		}
	}
}
