// Package reflow rewrites dialogue strings until they satisfy the layout
// rules of their dialect. Each pass applies the enabled fixes in a fixed
// order and re-derives sublines from the current text after every edit;
// passes repeat until nothing changes or the dialect pass cap is hit.
package reflow

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/minios-linux/dlgkit/analyze"
	"github.com/minios-linux/dlgkit/dialect"
	"github.com/minios-linux/dlgkit/fontmap"
)

// Options configures one Fix call.
type Options struct {
	Font    *fontmap.Map
	Dialect *dialect.Dialect
	// Threshold overrides the dialect width budget when positive.
	Threshold int
	// Fixes selects the rewrite steps; zero means the dialect's set.
	Fixes dialect.FixSet
	// PageSize and LineOffset are passed through to the page rules.
	PageSize   int
	LineOffset int
}

// Result is the outcome of Fix.
type Result struct {
	Text string
	// Changed is true iff Text differs from the input.
	Changed bool
	// Passes is the number of passes run.
	Passes int
	// Converged is false when the pass cap stopped the loop while the
	// text was still changing. Text is then a best-effort result.
	Converged bool
}

// Autofix runs every fix in fixes (the dialect's set when zero) and
// reports whether the text changed.
func Autofix(text string, fm *fontmap.Map, threshold int, d *dialect.Dialect, fixes dialect.FixSet) (string, bool) {
	res := Fix(text, Options{Font: fm, Dialect: d, Threshold: threshold, Fixes: fixes})
	return res.Text, res.Changed
}

// Fix runs the bounded fixpoint loop over text.
func Fix(text string, opts Options) Result {
	e := newEngine(opts)
	cur := text
	res := Result{}
	for res.Passes < e.d.MaxPasses {
		res.Passes++
		next := e.pass(cur)
		if next == cur {
			res.Converged = true
			break
		}
		cur = next
	}
	res.Text = cur
	res.Changed = cur != text
	return res
}

type engine struct {
	c     *analyze.Checker
	d     *dialect.Dialect
	fixes dialect.FixSet
	opts  analyze.Options
}

func newEngine(opts Options) *engine {
	e := &engine{
		c:     analyze.NewChecker(opts.Font, opts.Threshold, opts.Dialect),
		d:     opts.Dialect,
		fixes: opts.Fixes,
		opts:  analyze.Options{PageSize: opts.PageSize, LineOffset: opts.LineOffset},
	}
	if e.fixes == 0 {
		e.fixes = e.d.Fixes
	}
	if e.opts.PageSize == 0 {
		e.opts.PageSize = e.d.PageSize
	}
	return e
}

func (e *engine) split(text string) []analyze.Subline {
	return analyze.Split(text, e.d.Separators)
}

// pass applies each enabled fix once, in order.
func (e *engine) pass(text string) string {
	if e.fixes.Has(dialect.FixEmptyFirstLineOfPage) {
		text = e.removeEmptyPageStarts(text)
	}
	if e.fixes.Has(dialect.FixEmptyOddSubline) {
		text = e.collapseEmptyOdd(text)
	}
	if e.fixes.Has(dialect.FixShortLine) {
		text = e.mergeShortLines(text)
	}
	if e.fixes.Has(dialect.FixWidthSplit) {
		text = e.splitWide(text)
	}
	if e.fixes.Has(dialect.FixTagSpacing) {
		text = e.tagSpacing(text)
	}
	return text
}

// deleteLine removes subline i together with one adjacent separator: the
// one after it, or the one before it when i is last.
func deleteLine(subs []analyze.Subline, i int) string {
	if len(subs) == 1 {
		return ""
	}
	out := make([]analyze.Subline, 0, len(subs)-1)
	out = append(out, subs[:i]...)
	if i == len(subs)-1 {
		out[i-1].Sep = ""
	} else {
		out = append(out, subs[i+1:]...)
	}
	return analyze.Join(out)
}

// removeEmptyPageStarts deletes blank page-opening lines one at a time.
// Every deletion shortens the string, so the loop terminates.
func (e *engine) removeEmptyPageStarts(text string) string {
	for {
		subs := e.split(text)
		hit := -1
		for i := range subs {
			if analyze.EmptyFirstLineOfPage(subs, i, e.opts.LineOffset, e.opts.PageSize) {
				hit = i
				break
			}
		}
		if hit < 0 {
			return text
		}
		text = deleteLine(subs, hit)
	}
}

func (e *engine) collapseEmptyOdd(text string) string {
	display := e.d.EmptyOddVariant() == dialect.EmptyOddSublineDisplay
	for {
		subs := e.split(text)
		hit := -1
		for i := range subs {
			pos := i
			if display {
				pos += e.opts.LineOffset
			}
			if e.c.EmptyOdd(subs, i, pos) {
				hit = i
				break
			}
		}
		if hit < 0 {
			return text
		}
		text = deleteLine(subs, hit)
	}
}

// mergeShortLines walks sublines from last to first so that earlier
// indexes stay valid, pulling words up while the line stays short.
func (e *engine) mergeShortLines(text string) string {
	for i := len(e.split(text)) - 2; i >= 0; i-- {
		for {
			subs := e.split(text)
			if i+1 >= len(subs) || !e.c.ShortLine(subs[i].Text, subs[i+1].Text) {
				break
			}
			text = e.pullWord(subs, i)
		}
	}
	return text
}

// pullWord moves the first word of subline i+1 to the end of subline i and
// drops subline i+1 when nothing is left of it.
func (e *engine) pullWord(subs []analyze.Subline, i int) string {
	next := subs[i+1].Text
	spans := analyze.WordSpans(next, e.d.Tags)
	w := spans[0]

	subs[i].Text = strings.TrimRightFunc(subs[i].Text, unicode.IsSpace) + " " + next[w.Start:w.End]
	subs[i+1].Text = strings.TrimLeftFunc(next[w.End:], unicode.IsSpace)
	if strings.TrimSpace(subs[i+1].Text) == "" {
		return deleteLine(subs, i+1)
	}
	return analyze.Join(subs)
}

// splitWide breaks every over-wide subline at word boundaries.
func (e *engine) splitWide(text string) string {
	subs := e.split(text)
	changed := false
	for i := range subs {
		if !e.c.WidthExceeded(subs[i].Text) {
			continue
		}
		pieces := e.breakLine(subs[i].Text)
		if len(pieces) > 1 {
			subs[i].Text = strings.Join(pieces, e.d.LineBreak)
			changed = true
		}
	}
	if !changed {
		return text
	}
	return analyze.Join(subs)
}

// breakLine cuts line into pieces that fit the threshold. Each piece is
// the longest run of whole words that fits; a word wider than the
// threshold on its own becomes a piece by itself. Whitespace at a cut is
// dropped, everything else is kept.
func (e *engine) breakLine(line string) []string {
	spans := analyze.WordSpans(line, e.d.Tags)
	if len(spans) < 2 {
		return []string{line}
	}

	var pieces []string
	from := 0 // byte offset where the current piece starts
	first := 0
	for first < len(spans) {
		k := first
		for k+1 < len(spans) && e.c.Measure(line[from:spans[k+1].End]) <= e.c.Threshold {
			k++
		}
		if k == len(spans)-1 {
			pieces = append(pieces, line[from:])
			break
		}
		pieces = append(pieces, line[from:spans[k].End])
		first = k + 1
		from = spans[first].Start
	}
	return pieces
}

// tagSpacing drops spaces after closing tags unless punctuation follows.
func (e *engine) tagSpacing(text string) string {
	ts := e.d.Tags.Tokenize(text)
	var b strings.Builder
	prev := 0
	for _, t := range ts {
		if !e.d.IsClosingTag(t.Text) {
			continue
		}
		end := t.End
		for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
			end++
		}
		if end == t.End {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(text[end:]); end < len(text) && dialect.IsPunct(r) {
			continue
		}
		b.WriteString(text[prev:t.End])
		prev = end
	}
	if prev == 0 {
		return text
	}
	b.WriteString(text[prev:])
	return b.String()
}
