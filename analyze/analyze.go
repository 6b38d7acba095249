// Package analyze detects structural problems in multi-line dialogue
// strings. It is pure: every call derives sublines and tags from the text
// it is given and returns a fresh Report.
package analyze

import (
	"strings"

	"github.com/minios-linux/dlgkit/dialect"
	"github.com/minios-linux/dlgkit/fontmap"
)

// Options carries per-call context the dialect cannot know.
type Options struct {
	// PageSize overrides the dialect page size when non-zero.
	PageSize int
	// LineOffset is the absolute display line of subline 0. It is non-zero
	// only when a dialect numbers pages across a whole block.
	LineOffset int
}

// Report holds one problem set per subline.
type Report struct {
	Sublines []Subline
	Problems []dialect.ProblemSet
}

// Has reports whether subline i has problem p.
func (r Report) Has(i int, p dialect.ProblemID) bool {
	return i >= 0 && i < len(r.Problems) && r.Problems[i].Has(p)
}

// Clean reports whether no subline has any problem.
func (r Report) Clean() bool {
	for _, s := range r.Problems {
		if !s.Empty() {
			return false
		}
	}
	return true
}

// Count returns how many sublines have problem p.
func (r Report) Count(p dialect.ProblemID) int {
	n := 0
	for _, s := range r.Problems {
		if s.Has(p) {
			n++
		}
	}
	return n
}

// Union merges the problem sets of every subline.
func (r Report) Union() dialect.ProblemSet {
	var u dialect.ProblemSet
	for _, s := range r.Problems {
		u |= s
	}
	return u
}

// Checker evaluates the rules of one dialect against one font.
type Checker struct {
	D         *dialect.Dialect
	Font      *fontmap.Map
	Threshold int
}

// NewChecker returns a Checker. A non-positive threshold selects the
// dialect default.
func NewChecker(fm *fontmap.Map, threshold int, d *dialect.Dialect) *Checker {
	if threshold <= 0 {
		threshold = d.WidthThreshold
	}
	return &Checker{D: d, Font: fm, Threshold: threshold}
}

// Measure returns the rendered width of text with tags excluded.
func (c *Checker) Measure(text string) int {
	return fontmap.Measure(text, c.Font, c.D.Tags)
}

// Analyze runs every rule the dialect enables over text.
func Analyze(text string, fm *fontmap.Map, threshold int, d *dialect.Dialect, opts Options) Report {
	return NewChecker(fm, threshold, d).Analyze(text, opts)
}

// Analyze runs every enabled rule over text.
func (c *Checker) Analyze(text string, opts Options) Report {
	subs := Split(text, c.D.Separators)
	rep := Report{Sublines: subs, Problems: make([]dialect.ProblemSet, len(subs))}
	rules := c.D.Rules
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = c.D.PageSize
	}

	for i := range subs {
		var set dialect.ProblemSet
		if rules.Has(dialect.WidthExceeded) && c.WidthExceeded(subs[i].Text) {
			set = set.With(dialect.WidthExceeded)
		}
		if rules.Has(dialect.ShortLine) && i+1 < len(subs) && c.ShortLine(subs[i].Text, subs[i+1].Text) {
			set = set.With(dialect.ShortLine)
		}
		if rules.Has(dialect.SingleWordSubline) && c.singleWord(subs, i) {
			set = set.With(dialect.SingleWordSubline)
		}
		if rules.Has(dialect.EmptyOddSublineLogical) && c.EmptyOdd(subs, i, i) {
			set = set.With(dialect.EmptyOddSublineLogical)
		}
		if rules.Has(dialect.EmptyOddSublineDisplay) && c.EmptyOdd(subs, i, opts.LineOffset+i) {
			set = set.With(dialect.EmptyOddSublineDisplay)
		}
		if rules.Has(dialect.EmptyFirstLineOfPage) && EmptyFirstLineOfPage(subs, i, opts.LineOffset, pageSize) {
			set = set.With(dialect.EmptyFirstLineOfPage)
		}
		if rules.Has(dialect.TagWarning) && c.TagWarning(subs[i].Text) {
			set = set.With(dialect.TagWarning)
		}
		rep.Problems[i] = set
	}
	return rep
}

// WidthExceeded reports whether line, right-trimmed, is wider than the
// threshold.
func (c *Checker) WidthExceeded(line string) bool {
	return c.Measure(rtrim(line)) > c.Threshold
}

// ShortLine reports whether the first word of next would fit at the end
// of line, and line does not end a sentence.
func (c *Checker) ShortLine(line, next string) bool {
	content := strings.TrimSpace(c.D.Tags.Strip(line))
	if content == "" || c.D.IsSentenceEnd(content) {
		return false
	}
	word := FirstWord(next, c.D.Tags)
	if strings.TrimSpace(c.D.Tags.Strip(word)) == "" {
		return false
	}
	room := c.Threshold - c.Measure(rtrim(line))
	return room >= c.Measure(word)+c.Font.Width(" ")
}

func (c *Checker) singleWord(subs []Subline, i int) bool {
	if len(subs) < 2 {
		return false
	}
	if !c.D.SingleWordAnyLine && i%2 == 0 {
		return false
	}
	fields := strings.Fields(c.D.Tags.Strip(subs[i].Text))
	if len(fields) != 1 {
		return false
	}
	return strings.IndexFunc(fields[0], isWordRune) >= 0
}

// EmptyOdd evaluates the empty-odd rule for subline i at 0-based position
// pos. Odd ordinals count from one, so pos 0, 2, 4 qualify.
func (c *Checker) EmptyOdd(subs []Subline, i, pos int) bool {
	if len(subs) < 2 || pos%2 != 0 {
		return false
	}
	return IsFiller(subs[i].Text, c.D)
}

// IsFiller reports whether a subline holds no tags and nothing but
// whitespace or the literal "0".
func IsFiller(line string, d *dialect.Dialect) bool {
	if len(d.Tags.Tokenize(line)) > 0 {
		return false
	}
	s := strings.TrimSpace(line)
	return s == "" || s == "0"
}

// EmptyFirstLineOfPage reports whether subline i opens a page of pageSize
// display lines, is blank, and shares the page with a non-blank line.
// offset is the absolute display line of subline 0.
func EmptyFirstLineOfPage(subs []Subline, i, offset, pageSize int) bool {
	if pageSize < 2 || (offset+i)%pageSize != 0 {
		return false
	}
	if strings.TrimSpace(subs[i].Text) != "" {
		return false
	}
	for j := i + 1; j < i+pageSize && j < len(subs); j++ {
		if strings.TrimSpace(subs[j].Text) != "" {
			return true
		}
	}
	return false
}

// TagWarning reports whether line holds a tag outside the dialect
// vocabulary.
func (c *Checker) TagWarning(line string) bool {
	return len(IllegitimateTags(line, c.D)) > 0
}

// IllegitimateTags lists the tags of text the dialect does not know.
func IllegitimateTags(text string, d *dialect.Dialect) []string {
	var out []string
	for _, t := range d.Tags.Tokenize(text) {
		if !d.IsLegitimate(t.Text) {
			out = append(out, t.Text)
		}
	}
	return out
}
