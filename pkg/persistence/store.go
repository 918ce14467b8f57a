// Package persistence reads and writes favorites datasets as JSON, YAML or
// SQLite, picking the format from the file extension.
package persistence

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/favmerge/pkg/constants"
	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
	"github.com/agentstation/favmerge/pkg/merge"
)

// Format identifies a storage format.
type Format string

const (
	// FormatJSON is the favorites database format (tags + threads).
	FormatJSON Format = "json"
	// FormatYAML is the same document rendered as YAML.
	FormatYAML Format = "yaml"
	// FormatSQLite stores threads, tags and merge history in a SQLite file.
	FormatSQLite Format = "sqlite"
)

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a format name. The empty string is returned as is.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	}
	return "", &errors.ValidationError{Field: "store", Value: s, Message: "must be json, yaml or sqlite"}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", errors.NewParseError(filepath.Ext(path), path, "unsupported store format", errors.ErrUnsupportedFormat)
}

// Store loads and saves one dataset.
type Store interface {
	// Path returns the file backing the store
	Path() string

	// Format returns the storage format
	Format() Format

	// Load reads the dataset. A missing file yields a NotFoundError.
	Load(ctx context.Context) (*favorites.Dataset, error)

	// Save replaces the stored dataset
	Save(ctx context.Context, d *favorites.Dataset) error

	// Close releases resources held by the store
	Close() error
}

// HistoryRecorder is implemented by stores that keep a log of merges.
type HistoryRecorder interface {
	RecordMerge(ctx context.Context, result *merge.Result) error
	History(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// Open returns the store for path. An empty format is inferred from the
// file extension.
func Open(path string, format Format) (Store, error) {
	if format == "" {
		var err error
		if format, err = FormatFromPath(path); err != nil {
			return nil, err
		}
	}

	switch format {
	case FormatJSON:
		return NewJSONStore(path), nil
	case FormatYAML:
		return NewYAMLStore(path), nil
	case FormatSQLite:
		return NewSQLiteStore(path)
	}
	return nil, errors.NewParseError(format.String(), path, "unsupported store format", errors.ErrUnsupportedFormat)
}

// LoadOrNew loads the dataset from s, or returns an empty dataset when the
// store does not exist yet.
func LoadOrNew(ctx context.Context, s Store) (*favorites.Dataset, error) {
	d, err := s.Load(ctx)
	if errors.IsNotFound(err) {
		return favorites.New(), nil
	}
	return d, err
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return errors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("write", path, err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WrapIO("rename", path, err)
	}
	return nil
}

// readFile reads path, mapping a missing file to a NotFoundError.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("dataset", path)
	}
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return data, nil
}
