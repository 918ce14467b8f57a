package differ

import (
	"sort"
	"strings"

	"github.com/agentstation/favmerge/pkg/favorites"
)

// Differ handles change detection between records and datasets.
type Differ interface {
	// Record compares two versions of one record and returns the field changes,
	// or nil when nothing differs
	Record(existing, updated favorites.Record) *RecordUpdate

	// Records compares two sets of records and returns changes
	Records(existing, updated []favorites.Record) *Changeset

	// Datasets compares two complete datasets, including their tag vocabularies
	Datasets(existing, updated *favorites.Dataset) *Changeset
}

// differ is the default implementation of Differ.
type differ struct {
	ignoreFields map[string]bool
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	d := &differ{
		ignoreFields: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// fieldAccessors lists the comparable record fields in display order.
var fieldAccessors = []struct {
	name  string
	value func(favorites.Record) string
}{
	{"title", func(r favorites.Record) string { return r.Title }},
	{"description", func(r favorites.Record) string { return r.Description }},
	{"tags", func(r favorites.Record) string { return strings.Join(favorites.NormalizeTags(r.Tags), ", ") }},
	{"user_timestamp", func(r favorites.Record) string { return r.UserTimestamp }},
	{"add_timestamp", func(r favorites.Record) string { return r.AddTimestamp }},
}

// Record compares two versions of the same record.
func (diff *differ) Record(existing, updated favorites.Record) *RecordUpdate {
	var changes []FieldChange
	for _, f := range fieldAccessors {
		if diff.ignoreFields[f.name] {
			continue
		}
		oldValue, newValue := f.value(existing), f.value(updated)
		if oldValue == newValue {
			continue
		}
		typ := ChangeTypeUpdate
		switch {
		case oldValue == "":
			typ = ChangeTypeAdd
		case newValue == "":
			typ = ChangeTypeRemove
		}
		changes = append(changes, FieldChange{
			Path:     f.name,
			OldValue: oldValue,
			NewValue: newValue,
			Type:     typ,
		})
	}

	if len(changes) == 0 {
		return nil
	}
	return &RecordUpdate{
		Key:      updated.Key,
		Existing: existing,
		New:      updated,
		Changes:  changes,
	}
}

// Records compares two sets of records and returns changes.
func (diff *differ) Records(existing, updated []favorites.Record) *Changeset {
	changeset := &Changeset{
		Added:       []favorites.Record{},
		Updated:     []RecordUpdate{},
		Removed:     []favorites.Record{},
		TagsAdded:   []string{},
		TagsRemoved: []string{},
	}

	// Create maps for efficient lookup
	existingMap := make(map[string]favorites.Record, len(existing))
	for _, r := range existing {
		existingMap[r.Key] = r
	}

	newMap := make(map[string]favorites.Record, len(updated))
	for _, r := range updated {
		newMap[r.Key] = r
	}

	// Find added and updated records
	for _, newRecord := range updated {
		if existingRecord, exists := existingMap[newRecord.Key]; exists {
			if update := diff.Record(existingRecord, newRecord); update != nil {
				changeset.Updated = append(changeset.Updated, *update)
			}
		} else {
			changeset.Added = append(changeset.Added, newRecord)
		}
	}

	// Find removed records
	for _, existingRecord := range existing {
		if _, exists := newMap[existingRecord.Key]; !exists {
			changeset.Removed = append(changeset.Removed, existingRecord)
		}
	}

	// Sort for consistent output
	sortChangeset(changeset)
	changeset.Summary = calculateSummary(changeset)

	return changeset
}

// Datasets compares two complete datasets.
func (diff *differ) Datasets(existing, updated *favorites.Dataset) *Changeset {
	var oldRecords, newRecords []favorites.Record
	var oldTags, newTags []string
	if existing != nil {
		oldRecords, oldTags = existing.Records, existing.Tags
	}
	if updated != nil {
		newRecords, newTags = updated.Records, updated.Tags
	}

	changeset := diff.Records(oldRecords, newRecords)
	changeset.TagsAdded = tagDifference(newTags, oldTags)
	changeset.TagsRemoved = tagDifference(oldTags, newTags)
	changeset.Summary = calculateSummary(changeset)
	return changeset
}

// tagDifference returns the tags of a that are not in b.
func tagDifference(a, b []string) []string {
	sorted := favorites.NormalizeTags(b)
	out := []string{}
	for _, tag := range favorites.NormalizeTags(a) {
		if !favorites.HasTag(sorted, tag) {
			out = append(out, tag)
		}
	}
	return out
}

func sortChangeset(c *Changeset) {
	sort.Slice(c.Added, func(i, j int) bool { return c.Added[i].Key < c.Added[j].Key })
	sort.Slice(c.Updated, func(i, j int) bool { return c.Updated[i].Key < c.Updated[j].Key })
	sort.Slice(c.Removed, func(i, j int) bool { return c.Removed[i].Key < c.Removed[j].Key })
}
