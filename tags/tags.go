// Package tags tokenizes the inline control tags embedded in dialogue text.
//
// Two tag kinds exist: placeholder tags (editor-local, unresolved, e.g.
// "[Name]") and resolved tags (recognized by the game engine, e.g.
// "{Player}"). Each kind is described by one or more delimiter pairs.
// Unterminated delimiters are not tags and stay in the text as literal
// characters.
package tags

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Kind distinguishes placeholder tags from resolved tags.
type Kind int

const (
	Placeholder Kind = iota
	Resolved
)

func (k Kind) String() string {
	if k == Placeholder {
		return "placeholder"
	}
	return "resolved"
}

// Delim is an open/close delimiter pair.
type Delim struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// Tag is one tag occurrence inside its owning string.
type Tag struct {
	// Text is the full tag including delimiters.
	Text string
	// Start and End are byte offsets, End exclusive.
	Start, End int
	Kind       Kind
	// Body is Text without its delimiters.
	Body string
}

// Overlaps reports whether the tag intersects the byte range [start, end).
func (t Tag) Overlaps(start, end int) bool {
	return t.Start < end && start < t.End
}

// Syntax describes the delimiters of both tag kinds for one dialect.
type Syntax struct {
	Placeholder []Delim `yaml:"placeholder,omitempty"`
	Resolved    []Delim `yaml:"resolved,omitempty"`
}

type matcher struct {
	re    *regexp.Regexp
	delim Delim
	kind  Kind
}

// Default is the bracket convention used by the built-in dialects:
// "[...]" for placeholders and "{...}" for resolved tags.
func Default() *Syntax {
	return &Syntax{
		Placeholder: []Delim{{Open: "[", Close: "]"}},
		Resolved:    []Delim{{Open: "{", Close: "}"}},
	}
}

// patterns caches compiled delimiter expressions; Syntax values are shared
// read-only between goroutines.
var patterns sync.Map // string -> *regexp.Regexp

func delimPattern(d Delim) *regexp.Regexp {
	expr := regexp.QuoteMeta(d.Open) + `[^\n]*?` + regexp.QuoteMeta(d.Close)
	if re, ok := patterns.Load(expr); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(expr)
	patterns.Store(expr, re)
	return re
}

func (s *Syntax) matchers() []matcher {
	var ms []matcher
	add := func(ds []Delim, kind Kind) {
		for _, d := range ds {
			if d.Open == "" || d.Close == "" {
				continue
			}
			ms = append(ms, matcher{re: delimPattern(d), delim: d, kind: kind})
		}
	}
	add(s.Placeholder, Placeholder)
	add(s.Resolved, Resolved)
	return ms
}

// Tokenize returns all tags of text in document order.
// A nil Syntax recognizes no tags.
func (s *Syntax) Tokenize(text string) []Tag {
	if s == nil || text == "" {
		return nil
	}

	var all []Tag
	for _, m := range s.matchers() {
		for _, loc := range m.re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			// "[ [A]" holds the tag "[A]"; the outer open is literal.
			inner := text[start+len(m.delim.Open) : end-len(m.delim.Close)]
			if i := strings.LastIndex(inner, m.delim.Open); i >= 0 {
				start += len(m.delim.Open) + i
			}
			all = append(all, Tag{
				Text:  text[start:end],
				Start: start,
				End:   end,
				Kind:  m.kind,
				Body:  text[start+len(m.delim.Open) : end-len(m.delim.Close)],
			})
		}
	}
	if len(all) == 0 {
		return nil
	}

	// Earliest first; the longer candidate wins on equal starts.
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].End > all[j].End
	})

	filtered := all[:0]
	for _, t := range all {
		if n := len(filtered); n == 0 || !filtered[n-1].Overlaps(t.Start, t.End) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// Strip removes every tag from text.
func (s *Syntax) Strip(text string) string {
	ts := s.Tokenize(text)
	if len(ts) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, t := range ts {
		b.WriteString(text[prev:t.Start])
		prev = t.End
	}
	b.WriteString(text[prev:])
	return b.String()
}

// Of filters ts down to the tags of one kind.
func Of(ts []Tag, kind Kind) []Tag {
	var out []Tag
	for _, t := range ts {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Segment is a piece of text that is either plain text or a single tag.
type Segment struct {
	Text  string
	Start int
	Tag   *Tag
}

// Segments splits text into alternating plain-text and tag pieces.
// Concatenating the Text fields reproduces text.
func (s *Syntax) Segments(text string) []Segment {
	var out []Segment
	prev := 0
	for _, t := range s.Tokenize(text) {
		if t.Start > prev {
			out = append(out, Segment{Text: text[prev:t.Start], Start: prev})
		}
		tag := t
		out = append(out, Segment{Text: t.Text, Start: t.Start, Tag: &tag})
		prev = t.End
	}
	if prev < len(text) {
		out = append(out, Segment{Text: text[prev:], Start: prev})
	}
	return out
}

// TagAt returns the tag that starts exactly at offset i, if any.
func TagAt(ts []Tag, i int) (Tag, bool) {
	for _, t := range ts {
		if t.Start == i {
			return t, true
		}
		if t.Start > i {
			break
		}
	}
	return Tag{}, false
}
