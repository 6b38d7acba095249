// Package dialect describes one game's text conventions as data: line
// separators, width and page limits, which problems are checked and fixed,
// the tag vocabulary, placeholder mappings and the player-name construct.
//
// All algorithms in dlgkit are generic; a dialect only parameterizes them.
// Dialects are declared in YAML (see Spec) or taken from the built-ins.
package dialect

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/minios-linux/dlgkit/tags"
)

// ErrUnknown is returned when a dialect name cannot be resolved.
var ErrUnknown = errors.New("unknown dialect")

// Page scopes for the pagination rules.
const (
	// PageScopeString restarts page numbering at every string.
	PageScopeString = "string"
	// PageScopeBlock numbers display lines continuously across a block.
	PageScopeBlock = "block"
)

// DefaultMaxPasses bounds the reflow fixpoint loop.
const DefaultMaxPasses = 10

// Dialect is a compiled, read-only rule set. It is safe for concurrent use.
type Dialect struct {
	Name string
	// Separators split a string into sublines, longest first.
	Separators []string
	// LineBreak is inserted when the reflow engine splits a subline.
	LineBreak string
	// WidthThreshold is the pixel budget of one subline.
	WidthThreshold int
	// PageSize groups consecutive display lines into text boxes.
	PageSize  int
	PageScope string
	Rules     ProblemSet
	Fixes     FixSet
	Tags      *tags.Syntax
	// Mappings resolves placeholder tags to resolved tags on paste.
	Mappings map[string]string
	Player   Player
	// Marker is the reserved literal that must never be pasted twice.
	Marker string
	// TerminalPunctuation ends a sentence; a subline ending in one of
	// these (optionally followed by a ClosingQuotes rune) is never short.
	TerminalPunctuation string
	ClosingQuotes       string
	// SingleWordAnyLine evaluates SingleWordSubline on every subline
	// instead of odd indexes only.
	SingleWordAnyLine bool
	MaxPasses         int

	legitimate   map[string]bool
	legitPattern []*regexp.Regexp
	closing      []*regexp.Regexp
	pairs        []pairRule
}

// Player describes the player-name construct.
type Player struct {
	// Placeholder is the editor-side tag, e.g. "[Name]".
	Placeholder string
	// Resolved is the generic engine tag, e.g. "{Player}".
	Resolved string
	// Pattern matches every display form of the player name in resolved
	// text, e.g. a colored "{Player}".
	Pattern *regexp.Regexp
}

type pairRule struct {
	open  *regexp.Regexp
	close string
}

// IsLegitimate reports whether tag is part of the dialect vocabulary.
func (d *Dialect) IsLegitimate(tag string) bool {
	if d.legitimate[tag] {
		return true
	}
	for _, re := range d.legitPattern {
		if re.MatchString(tag) {
			return true
		}
	}
	return false
}

// IsClosingTag reports whether whitespace after tag is subject to the
// tag-spacing cleanup.
func (d *Dialect) IsClosingTag(tag string) bool {
	for _, re := range d.closing {
		if re.MatchString(tag) {
			return true
		}
	}
	return false
}

// PairClose returns the close tag that forms an elidable empty pair with
// open. Open tags equal to their own close (the "default" form) never
// start a pair.
func (d *Dialect) PairClose(open string) (string, bool) {
	for _, p := range d.pairs {
		if open != p.close && p.open.MatchString(open) {
			return p.close, true
		}
	}
	return "", false
}

// IsSentenceEnd reports whether s (already tag-stripped and trimmed) ends
// in terminal punctuation, optionally followed by one closing quote.
func (d *Dialect) IsSentenceEnd(s string) bool {
	rs := []rune(s)
	if len(rs) == 0 {
		return false
	}
	last := rs[len(rs)-1]
	if strings.ContainsRune(d.ClosingQuotes, last) && len(rs) > 1 {
		last = rs[len(rs)-2]
	}
	return strings.ContainsRune(d.TerminalPunctuation, last)
}

// IsPunct reports whether r counts as punctuation for tag spacing.
func IsPunct(r rune) bool {
	return unicode.IsPunct(r)
}

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// Spec is the YAML form of a dialect. Zero fields inherit from Base.
type Spec struct {
	Name string `yaml:"name"`
	// Base names a built-in dialect to inherit unset fields from.
	Base                string            `yaml:"base,omitempty"`
	Separators          []string          `yaml:"separators,omitempty"`
	LineBreak           string            `yaml:"line_break,omitempty"`
	WidthThreshold      int               `yaml:"width_threshold,omitempty"`
	PageSize            int               `yaml:"page_size,omitempty"`
	PageScope           string            `yaml:"page_scope,omitempty"`
	Rules               []string          `yaml:"rules,omitempty"`
	Fixes               []string          `yaml:"fixes,omitempty"`
	Tags                *tags.Syntax      `yaml:"tags,omitempty"`
	LegitimateTags      []string          `yaml:"legitimate_tags,omitempty"`
	LegitimatePatterns  []string          `yaml:"legitimate_patterns,omitempty"`
	ClosingTags         []string          `yaml:"closing_tags,omitempty"`
	EmptyPairs          []PairSpec        `yaml:"empty_pairs,omitempty"`
	Mappings            map[string]string `yaml:"mappings,omitempty"`
	Player              PlayerSpec        `yaml:"player,omitempty"`
	Marker              string            `yaml:"marker,omitempty"`
	TerminalPunctuation string            `yaml:"terminal_punctuation,omitempty"`
	ClosingQuotes       string            `yaml:"closing_quotes,omitempty"`
	SingleWordAnyLine   bool              `yaml:"single_word_any_line,omitempty"`
	MaxPasses           int               `yaml:"max_passes,omitempty"`
}

// PairSpec declares an elidable empty tag pair: a tag matching Open
// immediately followed by Close.
type PairSpec struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// PlayerSpec is the YAML form of Player.
type PlayerSpec struct {
	Placeholder string `yaml:"placeholder,omitempty"`
	Resolved    string `yaml:"resolved,omitempty"`
	Pattern     string `yaml:"pattern,omitempty"`
}

// anchored compiles p so that it must match a whole tag.
func anchored(p string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + p + `)$`)
}

// inherit fills the zero fields of s from base.
func (s Spec) inherit(base Spec) Spec {
	if s.Separators == nil {
		s.Separators = base.Separators
	}
	if s.LineBreak == "" {
		s.LineBreak = base.LineBreak
	}
	if s.WidthThreshold == 0 {
		s.WidthThreshold = base.WidthThreshold
	}
	if s.PageSize == 0 {
		s.PageSize = base.PageSize
	}
	if s.PageScope == "" {
		s.PageScope = base.PageScope
	}
	if s.Rules == nil {
		s.Rules = base.Rules
	}
	if s.Fixes == nil {
		s.Fixes = base.Fixes
	}
	if s.Tags == nil {
		s.Tags = base.Tags
	}
	if s.LegitimateTags == nil {
		s.LegitimateTags = base.LegitimateTags
	}
	if s.LegitimatePatterns == nil {
		s.LegitimatePatterns = base.LegitimatePatterns
	}
	if s.ClosingTags == nil {
		s.ClosingTags = base.ClosingTags
	}
	if s.EmptyPairs == nil {
		s.EmptyPairs = base.EmptyPairs
	}
	if s.Mappings == nil {
		s.Mappings = base.Mappings
	}
	if s.Player == (PlayerSpec{}) {
		s.Player = base.Player
	}
	if s.Marker == "" {
		s.Marker = base.Marker
	}
	if s.TerminalPunctuation == "" {
		s.TerminalPunctuation = base.TerminalPunctuation
	}
	if s.ClosingQuotes == "" {
		s.ClosingQuotes = base.ClosingQuotes
	}
	if !s.SingleWordAnyLine {
		s.SingleWordAnyLine = base.SingleWordAnyLine
	}
	if s.MaxPasses == 0 {
		s.MaxPasses = base.MaxPasses
	}
	return s
}

// Compile validates s and builds a Dialect. A Base that is not a built-in
// yields ErrUnknown.
func (s Spec) Compile() (*Dialect, error) {
	if s.Base != "" {
		base, ok := builtinSpecs()[s.Base]
		if !ok {
			return nil, fmt.Errorf("dialect %q: base %q: %w", s.Name, s.Base, ErrUnknown)
		}
		s = s.inherit(base)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("dialect has no name")
	}

	d := &Dialect{
		Name:                s.Name,
		LineBreak:           s.LineBreak,
		WidthThreshold:      s.WidthThreshold,
		PageSize:            s.PageSize,
		PageScope:           s.PageScope,
		Tags:                s.Tags,
		Mappings:            s.Mappings,
		Marker:              s.Marker,
		TerminalPunctuation: s.TerminalPunctuation,
		ClosingQuotes:       s.ClosingQuotes,
		SingleWordAnyLine:   s.SingleWordAnyLine,
		MaxPasses:           s.MaxPasses,
		legitimate:          make(map[string]bool, len(s.LegitimateTags)),
	}

	for _, sep := range s.Separators {
		if sep != "" {
			d.Separators = append(d.Separators, sep)
		}
	}
	if len(d.Separators) == 0 {
		d.Separators = []string{"\n"}
	}
	sort.SliceStable(d.Separators, func(i, j int) bool {
		return len(d.Separators[i]) > len(d.Separators[j])
	})
	if d.LineBreak == "" {
		d.LineBreak = d.Separators[0]
	}
	if d.Tags == nil {
		d.Tags = tags.Default()
	}
	if d.Mappings == nil {
		d.Mappings = map[string]string{}
	}
	if d.TerminalPunctuation == "" {
		d.TerminalPunctuation = ".!?"
	}
	if d.MaxPasses <= 0 {
		d.MaxPasses = DefaultMaxPasses
	}
	if d.WidthThreshold < 0 {
		return nil, fmt.Errorf("dialect %q: width_threshold must not be negative", s.Name)
	}
	if d.PageSize < 0 {
		return nil, fmt.Errorf("dialect %q: page_size must not be negative", s.Name)
	}

	switch d.PageScope {
	case "":
		d.PageScope = PageScopeString
	case PageScopeString, PageScopeBlock:
	default:
		return nil, fmt.Errorf("dialect %q: unknown page_scope %q (valid: string, block)", s.Name, d.PageScope)
	}

	if s.Rules == nil {
		s.Rules = builtinSpecs()[Generic].Rules
	}
	for _, name := range s.Rules {
		p, err := ParseProblem(name)
		if err != nil {
			return nil, fmt.Errorf("dialect %q: %w", s.Name, err)
		}
		d.Rules = d.Rules.With(p)
	}
	if s.Fixes == nil {
		d.Fixes = AllFixes()
	}
	for _, name := range s.Fixes {
		f, err := ParseFix(name)
		if err != nil {
			return nil, fmt.Errorf("dialect %q: %w", s.Name, err)
		}
		d.Fixes |= Fixes(f)
	}

	for _, t := range s.LegitimateTags {
		d.legitimate[t] = true
	}
	for _, p := range s.LegitimatePatterns {
		re, err := anchored(p)
		if err != nil {
			return nil, fmt.Errorf("dialect %q: legitimate pattern %q: %w", s.Name, p, err)
		}
		d.legitPattern = append(d.legitPattern, re)
	}
	for _, p := range s.ClosingTags {
		re, err := anchored(p)
		if err != nil {
			return nil, fmt.Errorf("dialect %q: closing tag %q: %w", s.Name, p, err)
		}
		d.closing = append(d.closing, re)
	}
	for _, ps := range s.EmptyPairs {
		if ps.Close == "" {
			return nil, fmt.Errorf("dialect %q: empty pair %q has no close tag", s.Name, ps.Open)
		}
		re, err := anchored(ps.Open)
		if err != nil {
			return nil, fmt.Errorf("dialect %q: empty pair %q: %w", s.Name, ps.Open, err)
		}
		d.pairs = append(d.pairs, pairRule{open: re, close: ps.Close})
	}

	d.Player = Player{Placeholder: s.Player.Placeholder, Resolved: s.Player.Resolved}
	switch {
	case s.Player.Pattern != "":
		re, err := regexp.Compile(s.Player.Pattern)
		if err != nil {
			return nil, fmt.Errorf("dialect %q: player pattern: %w", s.Name, err)
		}
		d.Player.Pattern = re
	case s.Player.Resolved != "":
		d.Player.Pattern = regexp.MustCompile(regexp.QuoteMeta(s.Player.Resolved))
	}

	return d, nil
}

// MustCompile is like Compile but panics on error. It is meant for
// dialects declared in code.
func MustCompile(s Spec) *Dialect {
	d, err := s.Compile()
	if err != nil {
		panic(err)
	}
	return d
}

// EmptyOddVariant returns the problem the empty-odd collapse acts on:
// the display variant when only that one is enabled, otherwise the
// logical one.
func (d *Dialect) EmptyOddVariant() ProblemID {
	if d.Rules.Has(EmptyOddSublineDisplay) && !d.Rules.Has(EmptyOddSublineLogical) {
		return EmptyOddSublineDisplay
	}
	return EmptyOddSublineLogical
}
