package persistence

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/agentstation/favmerge/pkg/constants"
	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
)

// JSONStore keeps a dataset in a favorites database JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store for the JSON file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the file backing the store.
func (s *JSONStore) Path() string { return s.path }

// Format returns FormatJSON.
func (s *JSONStore) Format() Format { return FormatJSON }

// Load reads and decodes the file.
func (s *JSONStore) Load(_ context.Context) (*favorites.Dataset, error) {
	data, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(s.path, data)
}

// Save encodes d and replaces the file.
func (s *JSONStore) Save(_ context.Context, d *favorites.Dataset) error {
	data, err := EncodeJSON(d)
	if err != nil {
		return errors.WrapParse("json", s.path, err)
	}
	return writeFileAtomic(s.path, data)
}

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }

// EncodeJSON renders d as an indented favorites database document.
func EncodeJSON(d *favorites.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", constants.JSONIndent)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// jsonDocument distinguishes missing top-level arrays from empty ones.
type jsonDocument struct {
	Tags    *[]string           `json:"tags"`
	Threads *[]favorites.Record `json:"threads"`
}

// DecodeJSON parses a favorites database document. Both the tags and the
// threads arrays must be present.
func DecodeJSON(name string, data []byte) (*favorites.Dataset, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("json", name, err)
	}
	if doc.Tags == nil || doc.Threads == nil {
		return nil, errors.NewParseError("json", name, "document must contain tags and threads arrays", nil)
	}
	return favorites.NewDataset(*doc.Threads, *doc.Tags), nil
}
