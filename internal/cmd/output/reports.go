package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/favmerge/pkg/constants"
	"github.com/agentstation/favmerge/pkg/favorites"
	"github.com/agentstation/favmerge/pkg/merge"
	"github.com/agentstation/favmerge/pkg/persistence"
)

// maxCellWidth caps free-text columns in narrow tables.
const maxCellWidth = 60

// RecordList renders favorite records.
type RecordList []favorites.Record

// Tables implements Tabular.
func (l RecordList) Tables(wide bool) []Data {
	headers := []string{"URL", "Title", "Tags"}
	if wide {
		headers = append(headers, HeaderName("description"), HeaderName("user_timestamp"), HeaderName("add_timestamp"))
	}

	rows := make([][]string, 0, len(l))
	for _, r := range l {
		title := r.Title
		if !wide {
			title = truncate(title, maxCellWidth)
		}
		row := []string{r.Key, title, strings.Join(r.Tags, ", ")}
		if wide {
			row = append(row, r.Description, r.UserTimestamp, r.AddTimestamp)
		}
		rows = append(rows, row)
	}
	return []Data{{Headers: headers, Rows: rows}}
}

// MergeReport renders the outcome of a merge.
type MergeReport merge.Result

// Heading implements Headed.
func (r *MergeReport) Heading() (string, string) {
	return "Merge report", (*merge.Result)(r).Summary()
}

// Tables implements Tabular.
func (r *MergeReport) Tables(wide bool) []Data {
	result := (*merge.Result)(r)
	tables := []Data{sourceStatsData(result)}

	if result.Changeset != nil && (wide || len(result.Changeset.Updated) > 0) {
		changes := Data{
			Title:   "Changes",
			Headers: []string{"URL", "Field", "Old", "New"},
			Rows:    [][]string{},
		}
		for _, u := range result.Changeset.Updated {
			for _, c := range u.Changes {
				oldValue, newValue := c.OldValue, c.NewValue
				if !wide {
					oldValue = truncate(oldValue, maxCellWidth)
					newValue = truncate(newValue, maxCellWidth)
				}
				changes.Rows = append(changes.Rows, []string{u.Key, c.Path, oldValue, newValue})
			}
		}
		tables = append(tables, changes)
	}

	if wide && result.Changeset != nil {
		added := Data{
			Title:   "Added",
			Headers: []string{"URL", "Title"},
			Rows:    [][]string{},
		}
		for _, rec := range result.Changeset.Added {
			added.Rows = append(added.Rows, []string{rec.Key, rec.Title})
		}
		tables = append(tables, added)
	}

	return tables
}

func sourceStatsData(result *merge.Result) Data {
	d := Data{
		Title: "Sources",
		Headers: []string{
			"Source", "Kind", "Records", "Added", "Updated",
			"Unchanged", "Conflicts", "Resolved", HeaderName("tags_added"),
		},
		ColumnAlignment: []Align{
			AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight,
			AlignRight, AlignRight, AlignRight, AlignRight,
		},
	}
	stats := append(append([]merge.SourceStats{}, result.Sources...), result.Totals())
	for _, s := range stats {
		kind := ""
		if s.Kind != "" {
			kind = s.Kind.Name()
		}
		d.Rows = append(d.Rows, []string{
			s.Source, kind,
			strconv.Itoa(s.Records), strconv.Itoa(s.Added), strconv.Itoa(s.Updated),
			strconv.Itoa(s.Unchanged), strconv.Itoa(s.Conflicts), strconv.Itoa(s.Resolved),
			strconv.Itoa(s.TagsAdded),
		})
	}
	return d
}

// PreviewReport renders a dry-run projection.
type PreviewReport merge.Summary

// Heading implements Headed.
func (p PreviewReport) Heading() (string, string) {
	return "Merge preview", fmt.Sprintf("%d threads in base, %d new, %d after merge",
		p.BaseRecords, p.NewRecords, p.Total)
}

// Tables implements Tabular.
func (p PreviewReport) Tables(bool) []Data {
	d := Data{
		Title:           "Sources",
		Headers:         []string{"Source", "Records", "New"},
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight},
		Rows:            [][]string{{merge.BaseSource, strconv.Itoa(p.BaseRecords), "-"}},
	}
	for _, s := range p.Sources {
		d.Rows = append(d.Rows, []string{s.Source, strconv.Itoa(s.Records), strconv.Itoa(s.New)})
	}
	d.Rows = append(d.Rows, []string{"total", strconv.Itoa(p.Total), strconv.Itoa(p.NewRecords)})
	return []Data{d}
}

// HistoryList renders recorded merge runs.
type HistoryList []persistence.HistoryEntry

// Tables implements Tabular.
func (h HistoryList) Tables(wide bool) []Data {
	headers := []string{"Finished", "Sources", "Added", "Updated", "Conflicts", "Records"}
	if wide {
		headers = append([]string{"ID"}, headers...)
	}
	rows := make([][]string, 0, len(h))
	for _, e := range h {
		row := []string{
			e.FinishedAt.Time.Format(constants.TimestampLayout),
			strings.Join(e.Sources, ", "),
			strconv.Itoa(e.Added),
			strconv.Itoa(e.Updated),
			strconv.Itoa(e.Conflicts),
			strconv.Itoa(e.Records),
		}
		if wide {
			row = append([]string{e.ID}, row...)
		}
		rows = append(rows, row)
	}
	return []Data{{Headers: headers, Rows: rows}}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
