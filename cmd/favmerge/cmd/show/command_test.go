package show

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/favmerge/internal/appcontext"
	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
	"github.com/agentstation/favmerge/pkg/merge"
	"github.com/agentstation/favmerge/pkg/persistence"
)

const db = `{"tags": ["news", "tech"], "threads": [
  {"url": "https://a.example/1", "title": "Go release", "tags": ["tech"]},
  {"url": "https://a.example/2", "title": "Weather", "tags": ["news"]},
  {"url": "https://a.example/3", "title": "Go conference", "tags": ["news", "tech"]}
]}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(&appcontext.Mock{Config: appcontext.Settings{Format: "json"}})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestShowRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(db), 0o644))

	out, err := execute(t, "--db", path, "--tag", "tech")
	require.NoError(t, err)

	var records []favorites.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "https://a.example/1", records[0].Key)
	assert.Equal(t, "https://a.example/3", records[1].Key)
}

func TestFilter(t *testing.T) {
	records := []favorites.Record{
		{Key: "https://a.example/1", Title: "Go release", Tags: []string{"tech"}},
		{Key: "https://a.example/2", Title: "Weather", Tags: []string{"news"}},
		{Key: "https://a.example/3", Title: "Go conference", Tags: []string{"news", "tech"}},
	}

	tests := []struct {
		tag, search string
		limit       int
		want        int
	}{
		{"", "", 0, 3},
		{"news", "", 0, 2},
		{"", "go ", 0, 2},
		{"", "A.EXAMPLE/2", 0, 1},
		{"", "", 1, 1},
		{"sports", "", 0, 0},
		{"", "*/[13]", 0, 2},
		{"tech", "^go conf", 0, 1},
	}
	for _, tt := range tests {
		got, err := Filter(records, tt.tag, tt.search, tt.limit)
		require.NoError(t, err)
		assert.Len(t, got, tt.want, "tag=%q search=%q limit=%d", tt.tag, tt.search, tt.limit)
	}

	_, err := Filter(records, "", "(oops", 0)
	assert.Error(t, err)
}

func TestShowHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.sqlite")
	store, err := persistence.NewSQLiteStore(path)
	require.NoError(t, err)

	result := merge.NewResult()
	result.Dataset = favorites.New()
	result.Sources = []merge.SourceStats{{Source: "fav.html", Added: 3}}
	result.Finalize()
	require.NoError(t, store.RecordMerge(context.Background(), result))
	require.NoError(t, store.Close())

	out, err := execute(t, "--db", path, "--history")
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.EqualValues(t, 3, entries[0]["added"])
}

func TestShowHistoryNeedsSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(db), 0o644))

	_, err := execute(t, "--db", path, "--history")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestShowMissingDatabase(t *testing.T) {
	_, err := execute(t, "--db", filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
