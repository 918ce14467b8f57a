package validate

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
)

const (
	goodDB = `{"tags": ["news"], "threads": [{"url": "https://a.example/1", "title": "one", "tags": ["news"]}]}`
	badDB  = `{"tags": [], "threads": [
  {"url": "https://a.example/1", "title": "one", "tags": ["news"]},
  {"url": "https://a.example/1", "title": "again", "tags": []}
]}`
)

func execute(t *testing.T, settings appcontext.Settings, args ...string) (Results, error) {
	t.Helper()
	settings.Format = "json"
	cmd := NewCommand(&appcontext.Mock{Config: settings})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.ExecuteContext(context.Background())

	var results Results
	if out.Len() > 0 {
		require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	}
	return results, err
}

func TestValidateFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(goodDB), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(badDB), 0o644))

	results, err := execute(t, appcontext.Settings{}, good, bad)
	require.Error(t, err)
	assert.True(t, errors.IsMalformedInput(err))

	require.Len(t, results, 2)
	assert.True(t, results[0].Valid)
	assert.Equal(t, "json", results[0].Format)
	assert.Equal(t, "advisory", results[0].Kind)
	assert.Equal(t, 1, results[0].Threads)

	assert.False(t, results[1].Valid)
	assert.Len(t, results[1].Problems, 2)
}

func TestValidateDefaultsToDatabase(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "favs.json")
	require.NoError(t, os.WriteFile(db, []byte(goodDB), 0o644))

	results, err := execute(t, appcontext.Settings{Database: db})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, db, results[0].File)
}

func TestValidateUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	results, err := execute(t, appcontext.Settings{}, filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Valid)
	assert.NotEmpty(t, results[0].Problems)
}

func TestResultsTables(t *testing.T) {
	tables := Results{
		{File: "a.json", Valid: true},
		{File: "b.json", Problems: []string{"duplicate key"}},
	}.Tables(false)

	require.Len(t, tables, 2)
	assert.Len(t, tables[0].Rows, 2)
	assert.Equal(t, []string{"b.json", "duplicate key"}, tables[1].Rows[0])
}
