// Package tagcheck verifies that the tags of every translation correspond,
// in count and order, to the tags of its source string.
//
// The checker is a step-driven state machine. A review session owns a
// *State; each Advance performs one bounded unit of work and Step runs
// until the next mismatch or the end of the cycle, so a host can pause on
// a mismatch, show it, and resume.
package tagcheck

import (
	"sort"
	"strings"

	"github.com/minios-linux/dlgkit/dialect"
	"github.com/minios-linux/dlgkit/tags"
)

// Document gives the checker read access to source and translation text.
type Document interface {
	Blocks() int
	Strings(block int) int
	Source(block, str int) string
	Translation(block, str int) string
}

// Phase is the state machine phase of a session.
type Phase int

const (
	Idle Phase = iota
	Scanning
	MismatchPaused
	Complete
)

func (p Phase) String() string {
	switch p {
	case Scanning:
		return "scanning"
	case MismatchPaused:
		return "mismatch"
	case Complete:
		return "complete"
	}
	return "idle"
}

// Event is the outcome of one Advance or Step.
type Event int

const (
	// EventProgress means work was done and the scan continues.
	EventProgress Event = iota
	// EventMismatch means a source tag had no counterpart; the session is
	// paused on State.LastMismatch.
	EventMismatch
	// EventComplete means the cycle finished; see State.Summary.
	EventComplete
)

// Position addresses one string of the document.
type Position struct {
	Block, String int
}

// Cursor is a Position plus the ordinal of the next source tag.
type Cursor struct {
	Position
	Tag int
}

// Span is a byte range [Start, End) of a translation.
type Span struct {
	Start, End int
}

func (s Span) overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Match records a source tag paired with a translation span.
type Match struct {
	Position
	Source tags.Tag
	Span   Span
}

// Mismatch records a source tag with no counterpart in the translation.
type Mismatch struct {
	Position
	// Tag is the unmatched source tag with its offsets in the source.
	Tag tags.Tag
}

// Summary is reported when a cycle completes.
type Summary struct {
	AllMatched  bool
	Mismatches  int
	TagsChecked int
}

// State is the mutable session state. The zero value is Idle.
type State struct {
	Phase      Phase
	Cursor     Cursor
	CycleStart Position
	// Used holds the translation spans matched in the current string.
	Used []Span
	// LastMatch is the match made by the latest Advance, if any.
	LastMatch    *Match
	LastMismatch *Mismatch
	Summary      Summary

	moved bool
}

// Mismatch returns the mismatch the session is paused on, or nil.
func (st *State) Mismatch() *Mismatch {
	if st.Phase != MismatchPaused {
		return nil
	}
	return st.LastMismatch
}

// Reset returns the session to Idle.
func (st *State) Reset() {
	*st = State{}
}

// Checker compares tags under the conventions of one dialect. It holds no
// session state and may be shared.
type Checker struct {
	d *dialect.Dialect
}

// New returns a Checker for d.
func New(d *dialect.Dialect) *Checker {
	return &Checker{d: d}
}

// Start opens a session at position at. A position outside the document
// starts at the first string.
func (c *Checker) Start(doc Document, at Position) *State {
	if at.Block < 0 || at.Block >= doc.Blocks() || at.String < 0 || at.String >= doc.Strings(at.Block) {
		at = Position{}
	}
	return &State{
		Phase:      Scanning,
		Cursor:     Cursor{Position: at},
		CycleStart: at,
	}
}

// Step advances until a mismatch or the end of the cycle. Called on a
// paused session it first acknowledges the pending mismatch.
func (c *Checker) Step(doc Document, st *State) Event {
	for {
		if ev := c.Advance(doc, st); ev != EventProgress {
			return ev
		}
	}
}

// Advance performs one bounded unit of work: a tag comparison, a move to
// the next string or block, or the resume of a paused session.
func (c *Checker) Advance(doc Document, st *State) Event {
	st.LastMatch = nil
	switch st.Phase {
	case Idle, Complete:
		return EventComplete
	case MismatchPaused:
		st.LastMismatch = nil
		st.Cursor.Tag++
		st.Phase = Scanning
		return EventProgress
	}

	blocks := doc.Blocks()
	if blocks == 0 || (st.moved && st.Cursor.Position == st.CycleStart && st.Cursor.Tag == 0) {
		st.Summary.AllMatched = st.Summary.Mismatches == 0
		st.Phase = Complete
		return EventComplete
	}

	cur := st.Cursor.Position
	if cur.String >= doc.Strings(cur.Block) {
		c.moveTo(st, Position{Block: (cur.Block + 1) % blocks})
		return EventProgress
	}

	src := doc.Source(cur.Block, cur.String)
	ts := c.d.Tags.Tokenize(src)
	ord := st.Cursor.Tag
	if ord >= len(ts) {
		c.moveTo(st, Position{Block: cur.Block, String: cur.String + 1})
		return EventProgress
	}

	tr := doc.Translation(cur.Block, cur.String)
	tag := ts[ord]

	if pair, ok := c.emptyPair(src, ts, ord); ok {
		if sp, found := firstUnused(literalSpans(tr, pair), st.Used); found {
			st.Used = append(st.Used, sp)
		}
		st.Cursor.Tag += 2
		st.Summary.TagsChecked += 2
		return EventProgress
	}

	st.Summary.TagsChecked++
	if sp, found := firstUnused(c.candidates(tr, tag), st.Used); found {
		st.Used = append(st.Used, sp)
		st.LastMatch = &Match{Position: cur, Source: tag, Span: sp}
		st.Cursor.Tag++
		return EventProgress
	}

	st.Summary.Mismatches++
	st.LastMismatch = &Mismatch{Position: cur, Tag: tag}
	st.Phase = MismatchPaused
	return EventMismatch
}

func (c *Checker) moveTo(st *State, p Position) {
	st.Cursor = Cursor{Position: p}
	st.Used = nil
	st.moved = true
}

// emptyPair reports whether ts[ord] opens a pair closed by ts[ord+1] with
// only whitespace between, and returns the construct text.
func (c *Checker) emptyPair(src string, ts []tags.Tag, ord int) (string, bool) {
	if ord+1 >= len(ts) {
		return "", false
	}
	open, next := ts[ord], ts[ord+1]
	closeTag, ok := c.d.PairClose(open.Text)
	if !ok || next.Text != closeTag {
		return "", false
	}
	if strings.TrimSpace(src[open.End:next.Start]) != "" {
		return "", false
	}
	return src[open.Start:next.End], true
}

// candidates lists every translation span that may stand for tag, in
// document order.
func (c *Checker) candidates(tr string, tag tags.Tag) []Span {
	var out []Span
	if c.isPlayer(tag.Text) && c.d.Player.Pattern != nil {
		for _, loc := range c.d.Player.Pattern.FindAllStringIndex(tr, -1) {
			out = append(out, Span{Start: loc[0], End: loc[1]})
		}
	}
	for _, t := range c.d.Tags.Tokenize(tr) {
		if c.Equivalent(tag.Text, t.Text) {
			out = append(out, Span{Start: t.Start, End: t.End})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func (c *Checker) isPlayer(text string) bool {
	p := c.d.Player
	return text != "" && (text == p.Placeholder || text == p.Resolved)
}

// Equivalent reports whether a translation tag corresponds to a source
// tag: same text, same body under either delimiter kind, or related by
// the dialect mapping table.
func (c *Checker) Equivalent(src, tr string) bool {
	if src == tr {
		return true
	}
	if c.d.Mappings[src] == tr || c.d.Mappings[tr] == src {
		return true
	}
	if c.isPlayer(src) && c.isPlayer(tr) {
		return true
	}
	sb, ok1 := c.body(src)
	tb, ok2 := c.body(tr)
	return ok1 && ok2 && sb == tb
}

// body returns the text inside the delimiters of a whole-tag string.
func (c *Checker) body(s string) (string, bool) {
	ts := c.d.Tags.Tokenize(s)
	if len(ts) != 1 || ts[0].Start != 0 || ts[0].End != len(s) {
		return "", false
	}
	return ts[0].Body, true
}

func literalSpans(text, lit string) []Span {
	var out []Span
	for i := 0; lit != "" && i <= len(text); {
		j := strings.Index(text[i:], lit)
		if j < 0 {
			break
		}
		out = append(out, Span{Start: i + j, End: i + j + len(lit)})
		i += j + 1
	}
	return out
}

func firstUnused(cands []Span, used []Span) (Span, bool) {
next:
	for _, sp := range cands {
		for _, u := range used {
			if sp.overlaps(u) {
				continue next
			}
		}
		return sp, true
	}
	return Span{}, false
}
