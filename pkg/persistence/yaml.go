package persistence

import (
	"context"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
)

// YAMLStore keeps a dataset in a YAML file with the same shape as the JSON database.
type YAMLStore struct {
	path string
}

// NewYAMLStore creates a store for the YAML file at path.
func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// Path returns the file backing the store.
func (s *YAMLStore) Path() string { return s.path }

// Format returns FormatYAML.
func (s *YAMLStore) Format() Format { return FormatYAML }

// Load reads and decodes the file.
func (s *YAMLStore) Load(_ context.Context) (*favorites.Dataset, error) {
	data, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	return DecodeYAML(s.path, data)
}

// Save encodes d and replaces the file.
func (s *YAMLStore) Save(_ context.Context, d *favorites.Dataset) error {
	data, err := EncodeYAML(d)
	if err != nil {
		return errors.WrapParse("yaml", s.path, err)
	}
	return writeFileAtomic(s.path, data)
}

// Close is a no-op.
func (s *YAMLStore) Close() error { return nil }

// EncodeYAML renders d as YAML.
func EncodeYAML(d *favorites.Dataset) ([]byte, error) {
	return yaml.MarshalWithOptions(d, yaml.Indent(2), yaml.IndentSequence(true))
}

// yamlDocument distinguishes missing top-level sequences from empty ones.
type yamlDocument struct {
	Tags    *[]string           `yaml:"tags"`
	Threads *[]favorites.Record `yaml:"threads"`
}

// DecodeYAML parses a YAML dataset. Both tags and threads must be present.
func DecodeYAML(name string, data []byte) (*favorites.Dataset, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	if doc.Tags == nil || doc.Threads == nil {
		return nil, errors.NewParseError("yaml", name, "document must contain tags and threads", nil)
	}
	return favorites.NewDataset(*doc.Threads, *doc.Tags), nil
}
