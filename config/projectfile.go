package config

// .dlgkit.yaml project file support.
//
// When a .dlgkit.yaml file exists in the project root, dlgkit uses it as
// the source of truth for documents and dialects. Without one, documents
// are auto-detected (see Detect).

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minios-linux/dlgkit/dialect"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// ProjectFile is the top-level .dlgkit.yaml structure.
type ProjectFile struct {
	// Dialect is the default dialect for all documents (default "generic").
	Dialect string `yaml:"dialect,omitempty"`
	// Font is the width table path relative to the project root.
	Font string `yaml:"font,omitempty"`
	// Threshold overrides the dialect width budget when positive.
	Threshold int `yaml:"threshold,omitempty"`
	// Workers bounds scan concurrency (0 = number of CPUs).
	Workers int `yaml:"workers,omitempty"`
	// Dialects declares project dialects, inline or in separate files.
	Dialects []DialectEntry `yaml:"dialects,omitempty"`
	// Documents lists the dialogue catalogs of the project.
	Documents []Document `yaml:"documents"`
}

// DialectEntry declares one dialect. Either File names a dialect YAML file
// relative to the project root, or the dialect fields are given inline.
type DialectEntry struct {
	dialect.Spec `yaml:",inline"`
	File         string `yaml:"file,omitempty"`
}

// Document is a named group of dialogue files.
type Document struct {
	// Name is a human-readable label shown in reports.
	Name string `yaml:"name"`
	// Paths are files or globs relative to the project root.
	Paths []string `yaml:"paths"`
	// Dialect overrides the project dialect for this document.
	Dialect string `yaml:"dialect,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// ProjectFileName is the default project file name.
const ProjectFileName = ".dlgkit.yaml"

// LoadProjectFile loads and validates .dlgkit.yaml from rootDir, or path
// when it is not empty. Returns nil if no project file exists at the
// default location; an explicit path must exist.
func LoadProjectFile(rootDir, path string) (*ProjectFile, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(rootDir, ProjectFileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	pf, err := ParseProjectFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pf, nil
}

// ParseProjectFile decodes and validates a project file, filling defaults.
// Unknown keys are rejected.
func ParseProjectFile(data []byte) (*ProjectFile, error) {
	var pf ProjectFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	if pf.Dialect == "" {
		pf.Dialect = dialect.Generic
	}
	if pf.Threshold < 0 {
		return nil, fmt.Errorf("threshold must not be negative (got %d)", pf.Threshold)
	}
	if pf.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative (got %d)", pf.Workers)
	}

	known := make(map[string]bool)
	for _, name := range dialect.Names() {
		known[name] = true
	}
	declared := make(map[string]bool)
	for i, d := range pf.Dialects {
		if d.Name == "" {
			return nil, fmt.Errorf("dialect #%d has no name", i+1)
		}
		if declared[d.Name] {
			return nil, fmt.Errorf("dialect %q declared twice", d.Name)
		}
		declared[d.Name] = true
		known[d.Name] = true
	}
	if !known[pf.Dialect] {
		return nil, fmt.Errorf("default dialect %q is neither built in nor declared", pf.Dialect)
	}

	for i := range pf.Documents {
		doc := &pf.Documents[i]
		if doc.Name == "" {
			return nil, fmt.Errorf("document #%d has no name", i+1)
		}
		if len(doc.Paths) == 0 {
			return nil, fmt.Errorf("document %q requires \"paths\"", doc.Name)
		}
		if doc.Dialect == "" {
			doc.Dialect = pf.Dialect
		}
		if !known[doc.Dialect] {
			return nil, fmt.Errorf("document %q uses unknown dialect %q", doc.Name, doc.Dialect)
		}
	}
	return &pf, nil
}

// FindDialect returns the declared dialect called name.
func (pf *ProjectFile) FindDialect(name string) (DialectEntry, bool) {
	if pf == nil {
		return DialectEntry{}, false
	}
	for _, d := range pf.Dialects {
		if d.Name == name {
			return d, true
		}
	}
	return DialectEntry{}, false
}
