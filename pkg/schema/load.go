package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/aretw0/layouts/pkg/registry"
	"gopkg.in/yaml.v3"
)

// Parse decodes a single YAML document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty workflow document")
		}
		return nil, fmt.Errorf("parse workflow: %w", err)
	}
	return &doc, nil
}

// LoadFile parses, validates and compiles the document at path.
func LoadFile(path string, reg *registry.Registry) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	wf, err := Compile(doc, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wf, nil
}

// LoadDir compiles every *.yaml and *.yml file of dir (non-recursive).
// Two documents declaring the same name are an error.
func LoadDir(dir string, reg *registry.Registry) (Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	cat := make(Catalog)
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
		default:
			continue
		}
		path := filepath.Join(dir, e.Name())
		wf, err := LoadFile(path, reg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := cat[wf.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate workflow name %q", path, wf.Name))
			continue
		}
		cat[wf.Name] = wf
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cat, nil
}

// Catalog indexes compiled workflows by name.
type Catalog map[string]*Workflow

// Lookup returns the workflow registered under name.
func (c Catalog) Lookup(name string) (*Workflow, bool) {
	wf, ok := c[name]
	return wf, ok
}

// Names lists the workflow names, sorted.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
