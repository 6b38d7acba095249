package tagcheck

import (
	"strings"
	"testing"

	"github.com/minios-linux/dlgkit/dialect"
)

type pair struct{ src, tr string }

// memDoc is an in-memory document: blocks of (source, translation) pairs.
type memDoc [][]pair

func (d memDoc) Blocks() int { return len(d) }
func (d memDoc) Strings(b int) int { return len(d[b]) }
func (d memDoc) Source(b, s int) string { return d[b][s].src }
func (d memDoc) Translation(b, s int) string { return d[b][s].tr }

func newChecker(t *testing.T) *Checker {
	t.Helper()
	d, err := dialect.Lookup(dialect.Generic)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return New(d)
}

// run advances until the cycle completes, acknowledging every mismatch,
// and returns the matches and mismatches seen.
func run(t *testing.T, c *Checker, doc Document, st *State) ([]Match, []Mismatch) {
	t.Helper()
	var matches []Match
	var misses []Mismatch
	for i := 0; i < 10000; i++ {
		switch c.Advance(doc, st) {
		case EventComplete:
			return matches, misses
		case EventMismatch:
			misses = append(misses, *st.Mismatch())
		}
		if st.LastMatch != nil {
			matches = append(matches, *st.LastMatch)
		}
	}
	t.Fatal("checker did not complete")
	return nil, nil
}

func TestMatchesBodiesAcrossKinds(t *testing.T) {
	c := newChecker(t)
	doc := memDoc{{{src: "[A][B]", tr: "{A} foo {B}"}}}
	st := c.Start(doc, Position{})

	matches, misses := run(t, c, doc, st)
	if len(misses) != 0 {
		t.Fatalf("mismatches = %v, want none", misses)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].Source.Text != "[A]" || matches[0].Span != (Span{0, 3}) {
		t.Fatalf("match 0 = %+v, want [A] at 0", matches[0])
	}
	if matches[1].Source.Text != "[B]" || matches[1].Span != (Span{8, 11}) {
		t.Fatalf("match 1 = %+v, want [B] at 8", matches[1])
	}
	if st.Phase != Complete || !st.Summary.AllMatched || st.Summary.TagsChecked != 2 {
		t.Fatalf("phase %v summary %+v", st.Phase, st.Summary)
	}
}

func TestMismatchPausesAndResumes(t *testing.T) {
	c := newChecker(t)
	doc := memDoc{{{src: "x [A] y [B]", tr: "y {B}"}}}
	st := c.Start(doc, Position{})

	if ev := c.Step(doc, st); ev != EventMismatch {
		t.Fatalf("Step = %v, want mismatch", ev)
	}
	m := st.Mismatch()
	if m == nil || m.Tag.Text != "[A]" || m.Tag.Start != 2 || m.Position != (Position{0, 0}) {
		t.Fatalf("Mismatch = %+v", m)
	}
	if st.Phase != MismatchPaused {
		t.Fatalf("Phase = %v, want mismatch", st.Phase)
	}

	if ev := c.Step(doc, st); ev != EventComplete {
		t.Fatalf("Step after resume = %v, want complete", ev)
	}
	if st.Mismatch() != nil {
		t.Fatal("resume should clear the mismatch")
	}
	if st.Summary.AllMatched || st.Summary.Mismatches != 1 {
		t.Fatalf("Summary = %+v", st.Summary)
	}
}

func TestEmptyPairElision(t *testing.T) {
	c := newChecker(t)

	doc := memDoc{{{src: "{Color:Red} {Color:Default}Hi", tr: "Hi"}}}
	st := c.Start(doc, Position{})
	if ev := c.Step(doc, st); ev != EventComplete || !st.Summary.AllMatched {
		t.Fatalf("absent pair: Step = %v, summary %+v", ev, st.Summary)
	}

	src := "{Color:Red} {Color:Default}a {Color:Red}b{Color:Default}"
	doc = memDoc{{{src: src, tr: src}}}
	st = c.Start(doc, Position{})
	matches, misses := run(t, c, doc, st)
	if len(misses) != 0 {
		t.Fatalf("mismatches = %v", misses)
	}
	second := strings.LastIndex(src, "{Color:Red}")
	if len(matches) == 0 || matches[0].Span.Start != second {
		t.Fatalf("matches = %+v, want the second red tag at %d", matches, second)
	}
	if len(st.Used) != 0 {
		t.Fatal("used spans should be cleared when the cursor leaves the string")
	}
}

func TestPlayerConstructMatchesFuzzily(t *testing.T) {
	c := newChecker(t)
	doc := memDoc{{
		{src: "[Name] hi", tr: "{Color:Blue}{Player}{Color:Default} hi"},
		{src: "{Player}!", tr: "{Player}!"},
	}}
	st := c.Start(doc, Position{})
	matches, misses := run(t, c, doc, st)
	if len(misses) != 0 {
		t.Fatalf("mismatches = %v", misses)
	}
	if len(matches) != 2 || matches[0].Span != (Span{0, 35}) {
		t.Fatalf("matches = %+v", matches)
	}
}

func TestMappingEquivalence(t *testing.T) {
	c := newChecker(t)
	if !c.Equivalent("[/C]", "{Color:Default}") {
		t.Fatal("mapped tags should be equivalent")
	}
	if !c.Equivalent("[Name]", "{Player}") {
		t.Fatal("player tags should be equivalent")
	}
	if c.Equivalent("[A]", "{B}") {
		t.Fatal("[A] and {B} are not equivalent")
	}
	if c.Equivalent("[A]", "x{A}") {
		t.Fatal("only whole tags have a body")
	}
}

func TestExclusivityWithinString(t *testing.T) {
	c := newChecker(t)
	doc := memDoc{{
		{src: "[A][A]", tr: "{A}"},
		{src: "[A]", tr: "{A}"},
	}}
	st := c.Start(doc, Position{})
	matches, misses := run(t, c, doc, st)

	if len(misses) != 1 || misses[0].Tag.Start != 3 {
		t.Fatalf("mismatches = %+v, want the second [A]", misses)
	}
	seen := map[Position]map[Span]bool{}
	for _, m := range matches {
		if seen[m.Position] == nil {
			seen[m.Position] = map[Span]bool{}
		}
		if seen[m.Position][m.Span] {
			t.Fatalf("span %v matched twice in %v", m.Span, m.Position)
		}
		seen[m.Position][m.Span] = true
	}
	// the second string reuses offsets of the first; spans are per string
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
}

func TestCycleTerminates(t *testing.T) {
	c := newChecker(t)
	doc := memDoc{
		{{src: "[A] x", tr: "nothing"}, {src: "plain", tr: "plain"}},
		{},
		{{src: "[B][C]", tr: "{C}"}, {src: "[D]", tr: "{D}"}, {src: "", tr: ""}},
	}
	totalTags, totalStrings, totalBlocks, mismatches := 4, 5, 3, 2
	// one unit per tag, per resume, per string and per block left, plus
	// the call that reports completion
	bound := totalTags + mismatches + totalStrings + totalBlocks + 1

	for _, at := range []Position{{0, 0}, {2, 1}, {1, 0}, {9, 9}} {
		st := c.Start(doc, at)
		advances := 0
		for ev := EventProgress; ev != EventComplete; {
			if advances == bound {
				t.Fatalf("start %v: no completion after %d advances", at, advances)
			}
			ev = c.Advance(doc, st)
			advances++
		}
		if st.Summary.Mismatches != mismatches || st.Summary.AllMatched {
			t.Fatalf("start %v: summary %+v, want %d mismatches", at, st.Summary, mismatches)
		}
		if st.Summary.TagsChecked != totalTags {
			t.Fatalf("start %v: TagsChecked = %d, want %d", at, st.Summary.TagsChecked, totalTags)
		}
	}
}

func TestStartClampsAndResets(t *testing.T) {
	c := newChecker(t)
	doc := memDoc{{{src: "a", tr: "a"}}}

	st := c.Start(doc, Position{Block: 3, String: 0})
	if st.CycleStart != (Position{}) || st.Phase != Scanning {
		t.Fatalf("Start = %+v", st)
	}
	if ev := c.Step(doc, st); ev != EventComplete || !st.Summary.AllMatched {
		t.Fatalf("tagless document: Step = %v, summary %+v", ev, st.Summary)
	}

	st.Reset()
	if st.Phase != Idle {
		t.Fatalf("Phase after Reset = %v", st.Phase)
	}
	if ev := c.Advance(doc, st); ev != EventComplete {
		t.Fatalf("Advance on idle = %v, want complete", ev)
	}

	empty := memDoc{}
	st = c.Start(empty, Position{})
	if ev := c.Step(empty, st); ev != EventComplete {
		t.Fatalf("empty document: Step = %v", ev)
	}
}
