// Package config resolves dlgkit settings from the project file, a .env
// file and the environment, and auto-detects dialogue documents when the
// project declares none.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/minios-linux/dlgkit/dialect"
	"github.com/minios-linux/dlgkit/document"
	"github.com/minios-linux/dlgkit/fontmap"
	"github.com/rs/zerolog/log"
)

// Environment overrides.
const (
	EnvDialect   = "DLGKIT_DIALECT"
	EnvFont      = "DLGKIT_FONT"
	EnvThreshold = "DLGKIT_THRESHOLD"
	EnvLogLevel  = "DLGKIT_LOG_LEVEL"
)

// DefaultFontWidth is the width of every character when no width table is
// configured.
const DefaultFontWidth = 6

// Settings holds the resolved configuration of one run.
type Settings struct {
	// Root is the absolute project root.
	Root string
	// Project is the parsed project file, nil when there is none.
	Project *ProjectFile
	// ProjectPath is the path Project was read from.
	ProjectPath string

	Dialect string
	// ForceDialect makes Dialect win over the dialects of declared
	// documents. It is set when the dialect comes from the environment.
	ForceDialect bool
	Font         string
	Threshold    int
	Workers      int
	LogLevel     string
}

// Load resolves settings for the project at root. configPath selects a
// project file other than root/.dlgkit.yaml. Values come from the project
// file first; DLGKIT_* variables, from the environment or root/.env,
// override them.
func Load(root, configPath string) (*Settings, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	envFile := filepath.Join(absRoot, ".env")
	if err := godotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
		log.Debug().Str("path", envFile).Msg("no .env file, using environment variables")
	}

	pf, err := LoadProjectFile(absRoot, configPath)
	if err != nil {
		return nil, err
	}

	s := &Settings{Root: absRoot, Project: pf, Dialect: dialect.Generic, LogLevel: "info"}
	if pf != nil {
		s.ProjectPath = configPath
		if s.ProjectPath == "" {
			s.ProjectPath = filepath.Join(absRoot, ProjectFileName)
		}
		s.Dialect = pf.Dialect
		s.Font = pf.Font
		s.Threshold = pf.Threshold
		s.Workers = pf.Workers
	}

	s.Dialect = getEnv(EnvDialect, s.Dialect)
	s.ForceDialect = os.Getenv(EnvDialect) != ""
	s.Font = getEnv(EnvFont, s.Font)
	s.Threshold = getEnvInt(EnvThreshold, s.Threshold)
	s.LogLevel = getEnv(EnvLogLevel, s.LogLevel)
	if s.Threshold < 0 {
		return nil, fmt.Errorf("%s must not be negative (got %d)", EnvThreshold, s.Threshold)
	}
	return s, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("ignoring non-numeric environment value")
		return fallback
	}
	return n
}

// Path resolves p against the project root.
func (s *Settings) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Root, p)
}

// LoadDialect compiles the dialect called name (the default one when
// empty). Declared project dialects shadow built-in ones; a name ending in
// .yaml or .yml is read as a dialect file.
func (s *Settings) LoadDialect(name string) (*dialect.Dialect, error) {
	if name == "" {
		name = s.Dialect
	}
	if e, ok := s.Project.FindDialect(name); ok {
		if e.File != "" {
			return dialect.Load(s.Path(e.File))
		}
		d, err := e.Spec.Compile()
		if err != nil {
			return nil, fmt.Errorf("dialect %q: %w", name, err)
		}
		return d, nil
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return dialect.Load(s.Path(name))
	}
	return dialect.Lookup(name)
}

// LoadFont reads the configured width table, or returns a table giving
// every character DefaultFontWidth.
func (s *Settings) LoadFont() (*fontmap.Map, error) {
	if s.Font == "" {
		return fontmap.New(DefaultFontWidth), nil
	}
	return fontmap.Load(s.Path(s.Font))
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// Target is a resolved document: concrete files and the dialect to check
// them with.
type Target struct {
	Name    string
	Dialect string
	Files   []string
}

// Targets resolves the documents to work on. Explicit args (files or
// globs) win; then the documents of the project file; then auto-detection.
func (s *Settings) Targets(args []string) ([]Target, error) {
	if len(args) > 0 {
		files, err := document.Expand("", args)
		if err != nil {
			return nil, err
		}
		return []Target{{Name: "args", Dialect: s.Dialect, Files: files}}, nil
	}

	if s.Project != nil && len(s.Project.Documents) > 0 {
		var out []Target
		for _, doc := range s.Project.Documents {
			files, err := document.Expand(s.Root, doc.Paths)
			if err != nil {
				return nil, fmt.Errorf("document %q: %w", doc.Name, err)
			}
			dlg := doc.Dialect
			if s.ForceDialect {
				dlg = s.Dialect
			}
			out = append(out, Target{Name: doc.Name, Dialect: dlg, Files: files})
		}
		return out, nil
	}

	files := Detect(s.Root)
	if len(files) == 0 {
		return nil, fmt.Errorf("no dialogue documents found in %s (declare them in %s)", s.Root, ProjectFileName)
	}
	log.Debug().Int("files", len(files)).Msg("documents auto-detected")
	return []Target{{Name: filepath.Base(s.Root), Dialect: s.Dialect, Files: files}}, nil
}

// detectDirs are searched, in order, for dialogue files.
var detectDirs = []string{"po", "dialogue", "dialogues", "text", "translations"}

// Detect finds dialogue files under rootDir: PO files in the root itself,
// PO and YAML files in the usual dialogue directories.
func Detect(rootDir string) []string {
	var files []string
	files = append(files, listFiles(rootDir, ".po")...)
	for _, dir := range detectDirs {
		files = append(files, listFiles(filepath.Join(rootDir, dir), ".po", ".yaml", ".yml")...)
	}
	return files
}

// listFiles returns the sorted files of dir with one of exts.
func listFiles(dir string, exts ...string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, e := range exts {
			if ext == e {
				out = append(out, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
