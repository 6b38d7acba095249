package analyze

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/minios-linux/dlgkit/tags"
)

// Subline is one display line of a dialogue string.
type Subline struct {
	// Index is the 0-based position within the string.
	Index int
	// Start is the byte offset of Text in the string.
	Start int
	Text  string
	// Sep is the separator that follows Text; empty for the last subline.
	Sep string
}

// Split partitions text at every occurrence of any separator. The first
// matching separator wins at a position, so seps should be ordered
// longest first. Split never returns an empty slice: "" yields one empty
// subline.
func Split(text string, seps []string) []Subline {
	var out []Subline
	start := 0
	for i := 0; i < len(text); {
		sep := sepAt(text, i, seps)
		if sep == "" {
			i++
			continue
		}
		out = append(out, Subline{Index: len(out), Start: start, Text: text[start:i], Sep: sep})
		i += len(sep)
		start = i
	}
	return append(out, Subline{Index: len(out), Start: start, Text: text[start:]})
}

func sepAt(text string, i int, seps []string) string {
	for _, s := range seps {
		if s != "" && strings.HasPrefix(text[i:], s) {
			return s
		}
	}
	return ""
}

// Join concatenates sublines with their separators. Join(Split(s)) == s.
func Join(subs []Subline) string {
	var b strings.Builder
	for _, s := range subs {
		b.WriteString(s.Text)
		b.WriteString(s.Sep)
	}
	return b.String()
}

// Span is a byte range [Start, End).
type Span struct {
	Start, End int
}

// FirstWord returns the leading whitespace-delimited token of text
// including any tags glued to it. Tags are atomic: whitespace inside a tag
// does not end the word. Leading whitespace is skipped.
func FirstWord(text string, syn *tags.Syntax) string {
	sp, ok := nextWord(text, syn.Tokenize(text), 0)
	if !ok {
		return ""
	}
	return text[sp.Start:sp.End]
}

// WordSpans returns the offsets of every word of text, tags kept whole
// and glued to their neighbours.
func WordSpans(text string, syn *tags.Syntax) []Span {
	ts := syn.Tokenize(text)
	var out []Span
	for i := 0; ; {
		sp, ok := nextWord(text, ts, i)
		if !ok {
			return out
		}
		out = append(out, sp)
		i = sp.End
	}
}

func nextWord(text string, ts []tags.Tag, i int) (Span, bool) {
	for i < len(text) {
		if _, ok := tags.TagAt(ts, i); ok {
			break
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	start := i
	for i < len(text) {
		if t, ok := tags.TagAt(ts, i); ok {
			i = t.End
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return Span{Start: start, End: i}, i > start
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func rtrim(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
