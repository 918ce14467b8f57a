package merge

import (
	"github.com/agentstation/favmerge/pkg/favorites"
)

// Summary projects the size of a merge without performing it.
type Summary struct {
	BaseRecords int             `json:"base_records" yaml:"base_records"`
	NewRecords  int             `json:"new_records" yaml:"new_records"` // Unique keys absent from base
	Total       int             `json:"total" yaml:"total"`             // Record count after the merge
	Sources     []SourcePreview `json:"sources" yaml:"sources"`
}

// SourcePreview counts one incoming dataset.
type SourcePreview struct {
	Source  string `json:"source" yaml:"source"`
	Records int    `json:"records" yaml:"records"`
	New     int    `json:"new" yaml:"new"` // Keys first introduced by this dataset
}

// Preview counts the records a merge of incoming into base would add.
// Nothing is modified and no resolver is consulted.
func Preview(base *favorites.Dataset, incoming ...favorites.Incoming) Summary {
	seen := make(map[string]bool)
	s := Summary{Sources: []SourcePreview{}}
	if base != nil {
		s.BaseRecords = base.Len()
		for _, r := range base.Records {
			seen[r.Key] = true
		}
	}

	for _, in := range incoming {
		p := SourcePreview{Source: in.Name}
		if in.Dataset != nil {
			p.Records = in.Dataset.Len()
			for _, r := range in.Dataset.Records {
				if !seen[r.Key] {
					seen[r.Key] = true
					p.New++
				}
			}
		}
		s.NewRecords += p.New
		s.Sources = append(s.Sources, p)
	}

	s.Total = s.BaseRecords + s.NewRecords
	return s
}
