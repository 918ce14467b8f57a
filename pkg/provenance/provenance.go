// Package provenance provides field-level tracking of where merged values came from.
package provenance

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/favmerge/pkg/constants"
	"github.com/agentstation/favmerge/pkg/errors"
)

// Provenance tracks the origin of a field value.
type Provenance struct {
	Source        string    `yaml:"source"`                   // Dataset that provided the value (file name or "base")
	Field         string    `yaml:"field"`                    // Field name
	Value         any       `yaml:"value"`                    // The value written
	PreviousValue any       `yaml:"previous_value,omitempty"` // Value before the write, if any
	Reason        string    `yaml:"reason"`                   // Why this value was selected
	Disputed      bool      `yaml:"disputed,omitempty"`       // Value settled a conflict
	Timestamp     time.Time `yaml:"timestamp"`                // When the value was set
}

// Map tracks provenance for many records.
type Map map[string][]Provenance // key is "recordKey:field"

// Tracker manages provenance tracking during a merge.
type Tracker interface {
	// Track records provenance for a field
	Track(recordKey string, field string, history Provenance)

	// FindByField retrieves provenance for a specific field
	FindByField(recordKey string, field string) []Provenance

	// FindByRecord retrieves all provenance for a record
	FindByRecord(recordKey string) map[string][]Provenance

	// Map returns the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

// tracker is the default implementation.
type tracker struct {
	provenance Map
	enabled    bool
}

// NewTracker creates a new provenance tracker.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

// Track records provenance for a field.
func (p *tracker) Track(recordKey string, field string, history Provenance) {
	if !p.enabled {
		return
	}

	if history.Timestamp.IsZero() {
		history.Timestamp = time.Now()
	}
	if history.Field == "" {
		history.Field = field
	}

	key := MakeKey(recordKey, field)
	p.provenance[key] = append(p.provenance[key], history)
}

// FindByField retrieves provenance for a specific field.
func (p *tracker) FindByField(recordKey string, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	return p.provenance[MakeKey(recordKey, field)]
}

// FindByRecord retrieves all provenance for a record.
func (p *tracker) FindByRecord(recordKey string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}

	result := make(map[string][]Provenance)
	for key, info := range p.provenance {
		if rk, field, ok := SplitKey(key); ok && rk == recordKey {
			result[field] = info
		}
	}
	return result
}

// Map returns the complete provenance map.
func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}

	// Return a copy to prevent external modification
	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = append([]Provenance{}, v...)
	}
	return result
}

// Clear removes all provenance data.
func (p *tracker) Clear() {
	p.provenance = make(Map)
}

// MakeKey builds the Map key for a record field. Record keys are URLs and
// may contain colons; field names never do.
func MakeKey(recordKey, field string) string {
	return recordKey + ":" + field
}

// SplitKey is the inverse of MakeKey.
func SplitKey(key string) (recordKey, field string, ok bool) {
	i := strings.LastIndex(key, ":")
	if i < 0 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// Report groups provenance by record for display.
type Report struct {
	Records map[string]RecordProvenance
}

// RecordProvenance contains provenance for a single record.
type RecordProvenance struct {
	Key    string
	Fields map[string]Field
}

// Field contains provenance history for a single field.
type Field struct {
	Current   Provenance     // Latest value and its source
	History   []Provenance   // Values in the order they were written
	Conflicts []ConflictInfo // Conflicts that were settled for this field
}

// ConflictInfo describes a conflict that was resolved.
type ConflictInfo struct {
	Source     string // Dataset whose value disputed the base
	Values     []any  // Base value, then incoming value
	Resolution string // How the conflict was resolved
}

// GenerateReport creates a provenance report from a Map.
func GenerateReport(provenance Map) *Report {
	report := &Report{
		Records: make(map[string]RecordProvenance),
	}

	for key, infos := range provenance {
		recordKey, field, ok := SplitKey(key)
		if !ok || len(infos) == 0 {
			continue
		}

		record, exists := report.Records[recordKey]
		if !exists {
			record = RecordProvenance{
				Key:    recordKey,
				Fields: make(map[string]Field),
			}
		}

		record.Fields[field] = Field{
			Current:   infos[len(infos)-1],
			History:   infos,
			Conflicts: detectConflicts(infos),
		}
		report.Records[recordKey] = record
	}

	return report
}

// detectConflicts collects the disputed writes in a field history.
func detectConflicts(infos []Provenance) []ConflictInfo {
	conflicts := []ConflictInfo{}
	for _, info := range infos {
		if !info.Disputed {
			continue
		}
		conflicts = append(conflicts, ConflictInfo{
			Source:     info.Source,
			Values:     []any{info.PreviousValue, info.Value},
			Resolution: info.Reason,
		})
	}
	return conflicts
}

// String generates a string representation of the provenance report.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	keys := make([]string, 0, len(r.Records))
	for key := range r.Records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		record := r.Records[key]
		sb.WriteString(record.Key + "\n")
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		fields := make([]string, 0, len(record.Fields))
		for field := range record.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, name := range fields {
			field := record.Fields[name]
			sb.WriteString(fmt.Sprintf("  %s:\n", name))
			sb.WriteString(fmt.Sprintf("    Current: %v (from %s, %s)\n",
				field.Current.Value, field.Current.Source, field.Current.Reason))

			for _, conflict := range field.Conflicts {
				sb.WriteString(fmt.Sprintf("    Conflict with %s: %s\n", conflict.Source, conflict.Resolution))
			}

			if len(field.History) > 1 {
				sb.WriteString("    History:\n")
				for i, info := range field.History {
					if i > 3 {
						sb.WriteString(fmt.Sprintf("      ... and %d more\n", len(field.History)-i))
						break
					}
					sb.WriteString(fmt.Sprintf("      - %v from %s at %s\n",
						info.Value, info.Source, info.Timestamp.Format("15:04:05")))
				}
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// File represents a provenance file stored on disk.
type File struct {
	Provenance Map `yaml:"provenance"`
}

// Save writes provenance data to a YAML file.
func Save(path string, provenance Map) error {
	data, err := yaml.Marshal(&File{Provenance: provenance})
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// Load reads provenance data from a YAML file.
// Returns nil, nil if the file doesn't exist (not an error).
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var pf File
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}

	return &pf, nil
}
