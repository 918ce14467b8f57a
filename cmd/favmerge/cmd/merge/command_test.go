package merge

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/favmerge/internal/appcontext"
	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
	"github.com/agentstation/favmerge/pkg/persistence"
	"github.com/agentstation/favmerge/pkg/provenance"
)

const (
	threadA = "https://bbs.example/thread/a"
	threadB = "https://bbs.example/thread/b"
)

func writeDataset(t *testing.T, path string, records ...favorites.Record) {
	t.Helper()
	d := favorites.New()
	for _, r := range records {
		d.Put(r)
	}
	data, err := persistence.EncodeJSON(d)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func readDataset(t *testing.T, path string) *favorites.Dataset {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	d, err := persistence.DecodeJSON(filepath.Base(path), data)
	require.NoError(t, err)
	return d
}

// execute runs the merge command and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	app := &appcontext.Mock{Config: appcontext.Settings{Format: "json", Resolver: "abort"}}
	cmd := NewCommand(app)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMergeCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "fav_database.json")
	in := filepath.Join(dir, "a.json")
	writeDataset(t, in,
		favorites.Record{Key: threadA, Title: "A", Tags: []string{"news"}},
		favorites.Record{Key: threadB, Title: "B"},
	)

	stdout, err := execute(t, "", "--db", db, in)
	require.NoError(t, err)

	merged := readDataset(t, db)
	assert.Equal(t, []string{threadA, threadB}, merged.Keys())
	assert.Equal(t, []string{"news"}, merged.Tags)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Contains(t, report, "sources")
}

func TestMergeFillsEmptyFields(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "db.json")
	in := filepath.Join(dir, "in.json")
	writeDataset(t, db, favorites.Record{Key: threadA, Title: "A"})
	writeDataset(t, in, favorites.Record{Key: threadA, Title: "A", Description: "notes"})

	_, err := execute(t, "", "--db", db, in)
	require.NoError(t, err)

	rec, ok := readDataset(t, db).Get(threadA)
	require.True(t, ok)
	assert.Equal(t, "notes", rec.Description)
}

func TestMergeAbortSavesNothing(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "db.json")
	in := filepath.Join(dir, "in.json")
	writeDataset(t, db, favorites.Record{Key: threadA, Title: "old"})
	writeDataset(t, in,
		favorites.Record{Key: threadB, Title: "B"},
		favorites.Record{Key: threadA, Title: "new"},
	)
	before, err := os.ReadFile(db)
	require.NoError(t, err)

	_, err = execute(t, "", "--db", db, "--resolver", "abort", in)
	require.Error(t, err)
	assert.True(t, errors.IsAborted(err))

	after, err := os.ReadFile(db)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestMergeResolvers(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{name: "base", args: []string{"--resolver", "base"}, want: "old"},
		{name: "incoming", args: []string{"--resolver", "incoming"}, want: "new"},
		{name: "prompt", args: []string{"--resolver", "prompt"}, stdin: "i\n", want: "new"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			db := filepath.Join(dir, "db.json")
			in := filepath.Join(dir, "in.json")
			writeDataset(t, db, favorites.Record{Key: threadA, Title: "old"})
			writeDataset(t, in, favorites.Record{Key: threadA, Title: "new"})

			args := append([]string{"--db", db}, tt.args...)
			_, err := execute(t, tt.stdin, append(args, in)...)
			require.NoError(t, err)

			rec, _ := readDataset(t, db).Get(threadA)
			assert.Equal(t, tt.want, rec.Title)
		})
	}
}

func TestMergeAnswersFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "db.json")
	in := filepath.Join(dir, "in.json")
	answers := filepath.Join(dir, "answers.yaml")
	writeDataset(t, db, favorites.Record{Key: threadA, Title: "old", Description: "mine"})
	writeDataset(t, in, favorites.Record{Key: threadA, Title: "new", Description: "theirs"})
	require.NoError(t, os.WriteFile(answers, []byte(threadA+":\n  title: incoming\n  description: base\n"), 0o644))

	_, err := execute(t, "", "--db", db, "--answers", answers, in)
	require.NoError(t, err)

	rec, _ := readDataset(t, db).Get(threadA)
	assert.Equal(t, "new", rec.Title)
	assert.Equal(t, "mine", rec.Description)
}

func TestMergeDryRun(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "db.json")
	in := filepath.Join(dir, "in.json")
	writeDataset(t, in, favorites.Record{Key: threadA}, favorites.Record{Key: threadB})

	stdout, err := execute(t, "", "--db", db, "--dry-run", in)
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.EqualValues(t, 2, summary["new_records"])
	assert.EqualValues(t, 2, summary["total"])

	_, statErr := os.Stat(db)
	assert.True(t, os.IsNotExist(statErr))
}

func TestMergeOutToSQLiteRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "db.json")
	out := filepath.Join(dir, "merged.db")
	in := filepath.Join(dir, "in.json")
	writeDataset(t, in, favorites.Record{Key: threadA, Title: "A"})

	_, err := execute(t, "", "--db", db, "--out", out, in)
	require.NoError(t, err)

	store, err := persistence.NewSQLiteStore(out)
	require.NoError(t, err)
	defer store.Close()

	d, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{threadA}, d.Keys())

	history, err := store.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, []string{"in.json"}, history[0].Sources)
}

func TestMergeWritesProvenance(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "db.json")
	in := filepath.Join(dir, "in.json")
	prov := filepath.Join(dir, "provenance.yaml")
	writeDataset(t, in, favorites.Record{Key: threadA, Title: "A"})

	_, err := execute(t, "", "--db", db, "--provenance", prov, in)
	require.NoError(t, err)

	file, err := provenance.Load(prov)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.NotEmpty(t, file.Provenance)
}

func TestMergeRejectsUnknownResolver(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	writeDataset(t, in, favorites.Record{Key: threadA})

	_, err := execute(t, "", "--db", filepath.Join(dir, "db.json"), "--resolver", "coin-flip", in)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestMergeRequiresFiles(t *testing.T) {
	_, err := execute(t, "")
	assert.Error(t, err)
}
