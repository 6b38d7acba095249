// Package fontmap holds bitmap-font metrics: a per-character pixel width
// table plus a default width for unmapped characters.
//
// Width tables are usually produced by a font tool and stored as YAML:
//
//	default: 6
//	wide: 12
//	widths:
//	  a: 5
//	  b: 7
//	  " ": 3
//
// The kernel only consumes the parsed table; it never reads font files.
package fontmap

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/minios-linux/dlgkit/tags"
	"golang.org/x/image/font"
	xwidth "golang.org/x/text/width"
	"gopkg.in/yaml.v3"
)

// Map is a character to pixel width table. A Map is read-only once built
// and may be shared between goroutines.
type Map struct {
	// Default is the width of characters missing from Widths.
	Default int
	// Wide, when non-zero, replaces Default for unmapped East Asian wide
	// and fullwidth characters.
	Wide int
	// Widths maps a character to its advance in pixels.
	Widths map[rune]int
}

// New returns a Map with the given default width and no entries.
func New(defaultWidth int) *Map {
	return &Map{Default: defaultWidth, Widths: make(map[rune]int)}
}

// Set records the width of r.
func (m *Map) Set(r rune, w int) {
	if m.Widths == nil {
		m.Widths = make(map[rune]int)
	}
	m.Widths[r] = w
}

// RuneWidth returns the width of a single character.
func (m *Map) RuneWidth(r rune) int {
	if m == nil {
		return 0
	}
	if w, ok := m.Widths[r]; ok {
		return w
	}
	if m.Wide > 0 {
		switch xwidth.LookupRune(r).Kind() {
		case xwidth.EastAsianWide, xwidth.EastAsianFullwidth:
			return m.Wide
		}
	}
	return m.Default
}

// Width sums the widths of every character of s. Tags are not recognized;
// use Measure for dialogue text.
func (m *Map) Width(s string) int {
	total := 0
	for _, r := range s {
		total += m.RuneWidth(r)
	}
	return total
}

// Measure returns the rendered width of text with every tag of syn
// contributing zero. It never fails: an empty string or a nil map
// measures 0.
func Measure(text string, m *Map, syn *tags.Syntax) int {
	if m == nil || text == "" {
		return 0
	}
	return m.Width(syn.Strip(text))
}

// ---------------------------------------------------------------------------
// YAML tables
// ---------------------------------------------------------------------------

// table is the on-disk form. Keys are single characters.
type table struct {
	Default int            `yaml:"default"`
	Wide    int            `yaml:"wide,omitempty"`
	Widths  map[string]int `yaml:"widths"`
}

// Parse decodes a YAML width table.
func Parse(data []byte) (*Map, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	m := New(t.Default)
	m.Wide = t.Wide
	for k, w := range t.Widths {
		if utf8.RuneCountInString(k) != 1 {
			return nil, fmt.Errorf("width key %q must be a single character", k)
		}
		r, _ := utf8.DecodeRuneInString(k)
		if w < 0 {
			return nil, fmt.Errorf("width of %q is negative (%d)", k, w)
		}
		m.Widths[r] = w
	}
	return m, nil
}

// Load reads a YAML width table from disk.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// Marshal encodes m as a YAML width table.
func (m *Map) Marshal() ([]byte, error) {
	t := table{Default: m.Default, Wide: m.Wide, Widths: make(map[string]int, len(m.Widths))}
	for r, w := range m.Widths {
		t.Widths[string(r)] = w
	}
	return yaml.Marshal(t)
}

// FromFace builds a table from the glyph advances of face for every
// character of charset. Advances are rounded to whole pixels. Characters
// the face cannot render are left unmapped and fall back to defaultWidth.
func FromFace(face font.Face, charset string, defaultWidth int) *Map {
	m := New(defaultWidth)
	for _, r := range charset {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		m.Widths[r] = adv.Round()
	}
	return m
}
