// Package sources turns exported favorites files into datasets ready to be
// merged. The file extension picks the parser and decides whether titles
// from the file are authoritative:
//
//	.json              favorites database        advisory
//	.yaml .yml         YAML database export      advisory
//	.db .sqlite        SQLite store              advisory
//	.html .htm         favorites page export     authoritative
//	.mht .mhtml        saved favorites page      authoritative
package sources

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
	"github.com/agentstation/favmerge/pkg/logging"
	"github.com/agentstation/favmerge/pkg/persistence"
)

// Format identifies an input file format.
type Format string

const (
	// FormatJSON is the favorites database.
	FormatJSON Format = "json"
	// FormatYAML is a YAML rendering of the database.
	FormatYAML Format = "yaml"
	// FormatSQLite is a SQLite store.
	FormatSQLite Format = "sqlite"
	// FormatHTML is the favorites page saved as HTML.
	FormatHTML Format = "html"
	// FormatMHTML is the favorites page saved as a MIME web archive.
	FormatMHTML Format = "mhtml"
)

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// Kind returns the source kind of datasets read in this format.
func (f Format) Kind() favorites.SourceKind {
	switch f {
	case FormatHTML, FormatMHTML:
		return favorites.Authoritative
	default:
		return favorites.Advisory
	}
}

// FormatFromPath infers the input format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".mht", ".mhtml":
		return FormatMHTML, nil
	}
	return "", errors.NewParseError(strings.TrimPrefix(filepath.Ext(path), "."), path,
		"unsupported file format", errors.ErrUnsupportedFormat)
}

// Parser decodes file contents into a dataset.
type Parser interface {
	Parse(name string, data []byte) (*favorites.Dataset, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(name string, data []byte) (*favorites.Dataset, error)

// Parse calls f(name, data).
func (f ParserFunc) Parse(name string, data []byte) (*favorites.Dataset, error) {
	return f(name, data)
}

// parsers maps in-memory formats to their parser. SQLite is read through
// the persistence layer instead.
var parsers = map[Format]Parser{
	FormatJSON:  ParserFunc(persistence.DecodeJSON),
	FormatYAML:  ParserFunc(persistence.DecodeYAML),
	FormatHTML:  ParserFunc(ParseHTML),
	FormatMHTML: ParserFunc(ParseMHTML),
}

// Parse decodes data in the given format and wraps it for merging.
func Parse(format Format, name string, data []byte) (favorites.Incoming, error) {
	parser, ok := parsers[format]
	if !ok {
		return favorites.Incoming{}, errors.NewParseError(format.String(), name,
			"no parser for format", errors.ErrUnsupportedFormat)
	}
	d, err := parser.Parse(name, data)
	if err != nil {
		return favorites.Incoming{}, err
	}
	return favorites.NewIncoming(name, format.Kind(), d), nil
}

// Load reads the file at path. The incoming dataset is named after the
// file's base name.
func Load(ctx context.Context, path string) (favorites.Incoming, error) {
	logger := logging.FromContext(ctx)
	name := filepath.Base(path)

	format, err := FormatFromPath(path)
	if err != nil {
		return favorites.Incoming{}, err
	}

	var in favorites.Incoming
	if format == FormatSQLite {
		in, err = loadStore(ctx, path, name)
	} else {
		var data []byte
		data, err = os.ReadFile(path) //nolint:gosec
		if err != nil {
			return favorites.Incoming{}, errors.WrapIO("read", path, err)
		}
		in, err = Parse(format, name, data)
	}
	if err != nil {
		return favorites.Incoming{}, err
	}

	logger.Debug().
		Str("file", path).
		Str("format", format.String()).
		Str("kind", in.Kind.String()).
		Int("records", in.Dataset.Len()).
		Msg("Loaded source")

	return in, nil
}

// LoadAll loads every path in order, stopping at the first failure.
func LoadAll(ctx context.Context, paths ...string) ([]favorites.Incoming, error) {
	incoming := make([]favorites.Incoming, 0, len(paths))
	for _, path := range paths {
		in, err := Load(ctx, path)
		if err != nil {
			return nil, err
		}
		incoming = append(incoming, in)
	}
	return incoming, nil
}

func loadStore(ctx context.Context, path, name string) (favorites.Incoming, error) {
	if _, err := os.Stat(path); err != nil {
		return favorites.Incoming{}, errors.WrapIO("stat", path, err)
	}
	store, err := persistence.NewSQLiteStore(path)
	if err != nil {
		return favorites.Incoming{}, err
	}
	defer store.Close() //nolint:errcheck

	d, err := store.Load(ctx)
	if err != nil {
		return favorites.Incoming{}, err
	}
	return favorites.NewIncoming(name, FormatSQLite.Kind(), d), nil
}
