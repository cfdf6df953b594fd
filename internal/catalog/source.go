package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Source supplies a catalog. Implementations must be safe for concurrent
// use.
type Source interface {
	Fetch(ctx context.Context) (*Catalog, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Catalog, error)

func (f SourceFunc) Fetch(ctx context.Context) (*Catalog, error) { return f(ctx) }

// Static always returns the same catalog.
type Static struct {
	Catalog *Catalog
}

func (s Static) Fetch(context.Context) (*Catalog, error) {
	if s.Catalog == nil {
		return Builtin(), nil
	}
	return s.Catalog, nil
}

// Document is the wire and file form of a catalog: a term list rather than
// the keyed map used in memory.
type Document struct {
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Terms   []Term `json:"terms" yaml:"terms" validate:"dive"`
}

var validate = validator.New()

// Decode parses a catalog document in JSON or YAML and checks every term.
func Decode(data []byte, source string) (*Catalog, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return fromDocument(doc, source)
}

func fromDocument(doc Document, source string) (*Catalog, error) {
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	c := New(source, doc.Terms...)
	c.Version = doc.Version
	return c, nil
}

// Encode returns the JSON document form of c.
func Encode(c *Catalog) ([]byte, error) {
	doc := Document{Version: c.Version, Terms: c.List()}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return data, nil
}

// FileSource reads a catalog document from disk on every Fetch.
type FileSource struct {
	Path string
}

func (f FileSource) Fetch(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("catalog file %s: unsupported extension", f.Path)
	}
	c, err := Decode(data, "file:"+filepath.Base(f.Path))
	if err != nil {
		return nil, err
	}
	if info, statErr := os.Stat(f.Path); statErr == nil && c.Version == "" {
		c.Version = info.ModTime().UTC().Format(time.RFC3339)
	}
	return c, nil
}
