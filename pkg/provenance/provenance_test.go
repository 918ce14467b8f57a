package provenance

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threadURL = "https://example.com/test/read.cgi/board/123/"

func TestKeysSurviveColonsInURLs(t *testing.T) {
	key := MakeKey(threadURL, "title")
	recordKey, field, ok := SplitKey(key)
	require.True(t, ok)
	assert.Equal(t, threadURL, recordKey)
	assert.Equal(t, "title", field)

	_, _, ok = SplitKey("nocolon")
	assert.False(t, ok)
}

func TestTracker(t *testing.T) {
	tr := NewTracker(true)
	tr.Track(threadURL, "title", Provenance{Source: "base", Value: "Old", Reason: "base value"})
	tr.Track(threadURL, "title", Provenance{Source: "fav.json", Value: "New", PreviousValue: "Old", Reason: "resolved: incoming", Disputed: true})
	tr.Track(threadURL, "tags", Provenance{Source: "fav.json", Value: []string{"a"}, Reason: "union"})

	history := tr.FindByField(threadURL, "title")
	require.Len(t, history, 2)
	assert.Equal(t, "title", history[0].Field)
	assert.False(t, history[0].Timestamp.IsZero())

	assert.Len(t, tr.FindByRecord(threadURL), 2)

	report := GenerateReport(tr.Map())
	record := report.Records[threadURL]
	title := record.Fields["title"]
	assert.Equal(t, "New", title.Current.Value)
	require.Len(t, title.Conflicts, 1)
	assert.Equal(t, "fav.json", title.Conflicts[0].Source)
	assert.Equal(t, []any{"Old", "New"}, title.Conflicts[0].Values)
	assert.Contains(t, report.String(), "Conflict with fav.json: resolved: incoming")

	tr.Clear()
	assert.Empty(t, tr.Map())
}

func TestDisabledTracker(t *testing.T) {
	tr := NewTracker(false)
	tr.Track(threadURL, "title", Provenance{Value: "x"})
	assert.Nil(t, tr.FindByField(threadURL, "title"))
	assert.Nil(t, tr.Map())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provenance.yaml")
	m := Map{
		MakeKey(threadURL, "title"): {{
			Source:    "fav.html",
			Field:     "title",
			Value:     "Title",
			Reason:    "authoritative",
			Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}},
	}
	require.NoError(t, Save(path, m))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	got := loaded.Provenance[MakeKey(threadURL, "title")]
	require.Len(t, got, 1)
	assert.Equal(t, "fav.html", got[0].Source)
	assert.Equal(t, "authoritative", got[0].Reason)

	missing, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
