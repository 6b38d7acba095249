package dialect

import (
	"fmt"
	"os"
	"sort"

	"github.com/minios-linux/dlgkit/tags"
	"gopkg.in/yaml.v3"
)

// Built-in dialect names.
const (
	Generic = "generic"
	Escaped = "escaped"
)

func allRuleNames() []string {
	var names []string
	for _, p := range AllProblems() {
		names = append(names, p.String())
	}
	return names
}

// builtinSpecs returns fresh copies of the built-in declarations.
func builtinSpecs() map[string]Spec {
	generic := Spec{
		Name:           Generic,
		Separators:     []string{"\n"},
		LineBreak:      "\n",
		WidthThreshold: 240,
		PageSize:       2,
		PageScope:      PageScopeString,
		// The logical and display variants are alternatives; generic uses
		// the logical one.
		Rules: []string{
			WidthExceeded.String(),
			ShortLine.String(),
			SingleWordSubline.String(),
			EmptyOddSublineLogical.String(),
			EmptyFirstLineOfPage.String(),
			TagWarning.String(),
		},
		Tags:           tags.Default(),
		LegitimateTags: []string{"{Player}", "{Color:Default}", "{Br}"},
		LegitimatePatterns: []string{
			`\{Color:[A-Za-z]+\}`,
			`\{Wait:\d+\}`,
			`\{Item:[^{}]+\}`,
		},
		ClosingTags: []string{`\{Br\}`},
		EmptyPairs: []PairSpec{
			{Open: `\{Color:[A-Za-z]+\}`, Close: "{Color:Default}"},
		},
		Mappings: map[string]string{
			"[Name]":  "{Player}",
			"[/C]":    "{Color:Default}",
			"[Pause]": "{Wait:30}",
		},
		Player: PlayerSpec{
			Placeholder: "[Name]",
			Resolved:    "{Player}",
			Pattern:     `(?:\{Color:[A-Za-z]+\})?\{Player\}(?:\{Color:Default\})?`,
		},
		Marker:              "§§",
		TerminalPunctuation: ".!?…",
		ClosingQuotes:       "\"'”’»」』",
		MaxPasses:           DefaultMaxPasses,
	}

	escaped := generic
	escaped.Name = Escaped
	escaped.Separators = []string{`\n`}
	escaped.LineBreak = `\n`

	return map[string]Spec{
		Generic: generic,
		Escaped: escaped,
	}
}

// Builtin returns the YAML declaration of a built-in dialect, useful as a
// starting point for a custom one.
func Builtin(name string) (Spec, error) {
	s, ok := builtinSpecs()[name]
	if !ok {
		return Spec{}, fmt.Errorf("%q: %w", name, ErrUnknown)
	}
	return s, nil
}

// Names lists the built-in dialects in sorted order.
func Names() []string {
	var out []string
	for name := range builtinSpecs() {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup compiles a built-in dialect by name.
func Lookup(name string) (*Dialect, error) {
	s, err := Builtin(name)
	if err != nil {
		return nil, err
	}
	return s.Compile()
}

// Parse decodes a YAML dialect declaration and compiles it.
func Parse(data []byte) (*Dialect, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Compile()
}

// Load reads and compiles a YAML dialect file.
func Load(path string) (*Dialect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return d, nil
}

// Marshal encodes s as YAML.
func (s Spec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
