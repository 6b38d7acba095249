package dialect

import (
	"fmt"
	"strings"
)

// ProblemID identifies one structural problem of a subline.
type ProblemID uint

const (
	WidthExceeded ProblemID = iota
	ShortLine
	SingleWordSubline
	EmptyOddSublineLogical
	EmptyOddSublineDisplay
	EmptyFirstLineOfPage
	TagWarning

	numProblems
)

var problemNames = [...]string{
	WidthExceeded:          "width_exceeded",
	ShortLine:              "short_line",
	SingleWordSubline:      "single_word_subline",
	EmptyOddSublineLogical: "empty_odd_subline_logical",
	EmptyOddSublineDisplay: "empty_odd_subline_display",
	EmptyFirstLineOfPage:   "empty_first_line_of_page",
	TagWarning:             "tag_warning",
}

func (p ProblemID) String() string {
	if p < numProblems {
		return problemNames[p]
	}
	return fmt.Sprintf("problem(%d)", uint(p))
}

// ParseProblem resolves a problem name as used in dialect files.
func ParseProblem(name string) (ProblemID, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	for i, n := range problemNames {
		if n == name {
			return ProblemID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown problem %q", name)
}

// AllProblems lists every problem in declaration order.
func AllProblems() []ProblemID {
	out := make([]ProblemID, 0, numProblems)
	for p := ProblemID(0); p < numProblems; p++ {
		out = append(out, p)
	}
	return out
}

// ProblemSet is a set of ProblemIDs.
type ProblemSet uint32

// Problems builds a set from ids.
func Problems(ids ...ProblemID) ProblemSet {
	var s ProblemSet
	for _, id := range ids {
		s = s.With(id)
	}
	return s
}

// Has reports whether p is in the set.
func (s ProblemSet) Has(p ProblemID) bool { return s&(1<<p) != 0 }

// With returns the set with p added.
func (s ProblemSet) With(p ProblemID) ProblemSet { return s | 1<<p }

// Empty reports whether the set has no members.
func (s ProblemSet) Empty() bool { return s == 0 }

// List returns the members in declaration order.
func (s ProblemSet) List() []ProblemID {
	var out []ProblemID
	for p := ProblemID(0); p < numProblems; p++ {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s ProblemSet) String() string {
	names := make([]string, 0, 4)
	for _, p := range s.List() {
		names = append(names, p.String())
	}
	return strings.Join(names, ",")
}

// Fix identifies one rewrite step of the reflow engine.
type Fix uint

const (
	FixEmptyFirstLineOfPage Fix = iota
	FixEmptyOddSubline
	FixShortLine
	FixWidthSplit
	FixTagSpacing

	numFixes
)

var fixNames = [...]string{
	FixEmptyFirstLineOfPage: "empty_first_line_of_page",
	FixEmptyOddSubline:      "empty_odd_subline",
	FixShortLine:            "short_line",
	FixWidthSplit:           "width_split",
	FixTagSpacing:           "tag_spacing",
}

func (f Fix) String() string {
	if f < numFixes {
		return fixNames[f]
	}
	return fmt.Sprintf("fix(%d)", uint(f))
}

// ParseFix resolves a fix name as used in dialect files.
func ParseFix(name string) (Fix, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	for i, n := range fixNames {
		if n == name {
			return Fix(i), nil
		}
	}
	return 0, fmt.Errorf("unknown fix %q", name)
}

// FixSet is a set of Fixes.
type FixSet uint32

// Fixes builds a set from ids.
func Fixes(ids ...Fix) FixSet {
	var s FixSet
	for _, id := range ids {
		s |= 1 << id
	}
	return s
}

// AllFixes enables every reflow step.
func AllFixes() FixSet {
	return FixSet(1<<numFixes - 1)
}

// Has reports whether f is in the set.
func (s FixSet) Has(f Fix) bool { return s&(1<<f) != 0 }

func (s FixSet) String() string {
	var names []string
	for f := Fix(0); f < numFixes; f++ {
		if s.Has(f) {
			names = append(names, f.String())
		}
	}
	return strings.Join(names, ",")
}
