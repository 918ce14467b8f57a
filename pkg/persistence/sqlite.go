package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agentstation/utc"
	_ "modernc.org/sqlite"

	"github.com/agentstation/favmerge/pkg/constants"
	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
	"github.com/agentstation/favmerge/pkg/merge"
)

// SQLiteStore keeps a dataset and its merge history in a SQLite file.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// HistoryEntry is one recorded merge.
type HistoryEntry struct {
	ID         string   `json:"id" yaml:"id"`
	Sources    []string `json:"sources" yaml:"sources"`
	Added      int      `json:"added" yaml:"added"`
	Updated    int      `json:"updated" yaml:"updated"`
	Conflicts  int      `json:"conflicts" yaml:"conflicts"`
	Resolved   int      `json:"resolved" yaml:"resolved"`
	Records    int      `json:"records" yaml:"records"`
	StartedAt  utc.Time `json:"started_at" yaml:"started_at"`
	FinishedAt utc.Time `json:"finished_at" yaml:"finished_at"`
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, errors.WrapResource("open", "store", path, err)
	}

	s := &SQLiteStore{path: path, db: db}
	if err := s.migrate(); err != nil {
		db.Close() //nolint:errcheck,gosec
		return nil, errors.WrapResource("migrate", "store", path, err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS threads (
		url            TEXT PRIMARY KEY,
		position       INTEGER NOT NULL,
		title          TEXT NOT NULL DEFAULT '',
		description    TEXT NOT NULL DEFAULT '',
		tags           TEXT,
		user_timestamp TEXT NOT NULL DEFAULT '',
		add_timestamp  TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_threads_position ON threads(position);

	CREATE TABLE IF NOT EXISTS tags (
		name TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS merge_history (
		id          TEXT PRIMARY KEY,
		sources     TEXT NOT NULL,
		added       INTEGER NOT NULL DEFAULT 0,
		updated     INTEGER NOT NULL DEFAULT 0,
		conflicts   INTEGER NOT NULL DEFAULT 0,
		resolved    INTEGER NOT NULL DEFAULT 0,
		records     INTEGER NOT NULL DEFAULT 0,
		started_at  TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_merge_history_started ON merge_history(started_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Format returns FormatSQLite.
func (s *SQLiteStore) Format() Format { return FormatSQLite }

// Load reads every thread in stored order plus the tag vocabulary.
func (s *SQLiteStore) Load(ctx context.Context) (*favorites.Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, description, tags, user_timestamp, add_timestamp
		 FROM threads ORDER BY position`)
	if err != nil {
		return nil, errors.WrapResource("load", "threads", s.path, err)
	}
	defer rows.Close()

	var records []favorites.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.WrapResource("load", "threads", s.path, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("load", "threads", s.path, err)
	}

	tagRows, err := s.db.QueryContext(ctx, `SELECT name FROM tags ORDER BY name`)
	if err != nil {
		return nil, errors.WrapResource("load", "tags", s.path, err)
	}
	defer tagRows.Close()

	var tags []string
	for tagRows.Next() {
		var name string
		if err := tagRows.Scan(&name); err != nil {
			return nil, errors.WrapResource("load", "tags", s.path, err)
		}
		tags = append(tags, name)
	}
	if err := tagRows.Err(); err != nil {
		return nil, errors.WrapResource("load", "tags", s.path, err)
	}

	return favorites.NewDataset(records, tags), nil
}

// Save replaces the stored threads and tags with d in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, d *favorites.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("save", "store", s.path, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM threads`); err != nil {
		return errors.WrapResource("save", "threads", s.path, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tags`); err != nil {
		return errors.WrapResource("save", "tags", s.path, err)
	}

	for i, r := range d.Records {
		tagsJSON, err := json.Marshal(favorites.NormalizeTags(r.Tags))
		if err != nil {
			return errors.WrapResource("save", "thread", r.Key, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO threads (url, position, title, description, tags, user_timestamp, add_timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.Key, i, r.Title, r.Description, string(tagsJSON), r.UserTimestamp, r.AddTimestamp)
		if err != nil {
			return errors.WrapResource("save", "thread", r.Key, err)
		}
	}

	for _, tag := range favorites.NormalizeTags(d.Tags) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, tag); err != nil {
			return errors.WrapResource("save", "tag", tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapResource("save", "store", s.path, err)
	}
	return nil
}

// RecordMerge appends a merge result to the history table.
func (s *SQLiteStore) RecordMerge(ctx context.Context, result *merge.Result) error {
	names := make([]string, 0, len(result.Sources))
	for _, src := range result.Sources {
		names = append(names, src.Source)
	}
	sourcesJSON, err := json.Marshal(names)
	if err != nil {
		return errors.WrapResource("record", "merge", result.ID.String(), err)
	}

	totals := result.Totals()
	records := 0
	if result.Dataset != nil {
		records = result.Dataset.Len()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO merge_history (id, sources, added, updated, conflicts, resolved, records, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID.String(), string(sourcesJSON), totals.Added, totals.Updated, totals.Conflicts, totals.Resolved,
		records, formatTime(result.StartedAt), formatTime(result.FinishedAt))
	if err != nil {
		return errors.WrapResource("record", "merge", result.ID.String(), err)
	}
	return nil
}

// History returns recorded merges, newest first. A limit of zero or less returns all.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	query := `SELECT id, sources, added, updated, conflicts, resolved, records, started_at, finished_at
		FROM merge_history ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapResource("load", "merge history", s.path, err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, errors.WrapResource("load", "merge history", s.path, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (favorites.Record, error) {
	var r favorites.Record
	var tagsJSON sql.NullString

	if err := row.Scan(&r.Key, &r.Title, &r.Description, &tagsJSON, &r.UserTimestamp, &r.AddTimestamp); err != nil {
		return r, err
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &r.Tags); err != nil {
			return r, fmt.Errorf("tags of %s: %w", r.Key, err)
		}
	}
	return r, nil
}

func scanHistory(row scanner) (HistoryEntry, error) {
	var e HistoryEntry
	var sourcesJSON, startedAt, finishedAt string

	err := row.Scan(&e.ID, &sourcesJSON, &e.Added, &e.Updated, &e.Conflicts, &e.Resolved,
		&e.Records, &startedAt, &finishedAt)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &e.Sources); err != nil {
		return e, fmt.Errorf("sources of %s: %w", e.ID, err)
	}
	e.StartedAt = parseTime(startedAt)
	e.FinishedAt = parseTime(finishedAt)
	return e, nil
}

func formatTime(t utc.Time) string {
	return t.Time.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) utc.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return utc.New(t)
}
