// Package paste reconciles placeholder tags in a segment pasted back into
// a dialogue string against the resolved tags of the string it replaces.
package paste

import (
	"errors"
	"sort"
	"strings"

	"github.com/minios-linux/dlgkit/dialect"
	"github.com/minios-linux/dlgkit/i18n"
	"github.com/minios-linux/dlgkit/tags"
)

// ErrNilMappings is returned when Reconcile is called without a mapping
// table. An empty table is valid.
var ErrNilMappings = errors.New("paste: nil tag mapping table")

// Status classifies a reconciliation.
type Status int

const (
	OK Status = iota
	Warning
	UnresolvedPlaceholders
	Critical
)

var statusNames = [...]string{
	OK:                     "OK",
	Warning:                "WARNING",
	UnresolvedPlaceholders: "UNRESOLVED_PLACEHOLDERS",
	Critical:               "CRITICAL",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

// Result is the outcome of Reconcile. Text is the pasted segment after
// every applied substitution; on Critical it is the input unchanged.
type Result struct {
	Text    string
	Status  Status
	Message string
}

// Reconciler applies the tag conventions of one dialect.
type Reconciler struct {
	d *dialect.Dialect
}

// New returns a Reconciler for d.
func New(d *dialect.Dialect) *Reconciler {
	return &Reconciler{d: d}
}

// Reconcile resolves the placeholder tags of pasted. Explicit mappings are
// applied first, longest placeholder first. Remaining placeholders are
// resolved by position when their number equals the number of resolved
// tags in original; playerPlaceholder (the dialect's when empty) always
// resolves to the generic player tag.
func (r *Reconciler) Reconcile(pasted, original string, mappings map[string]string, playerPlaceholder string) (Result, error) {
	if mappings == nil {
		return Result{}, ErrNilMappings
	}
	if playerPlaceholder == "" {
		playerPlaceholder = r.d.Player.Placeholder
	}

	if m := r.d.Marker; m != "" {
		inPasted, inOriginal := strings.Contains(pasted, m), strings.Contains(original, m)
		if inPasted && inOriginal {
			return Result{
				Text:    pasted,
				Status:  Critical,
				Message: i18n.Tf("Reserved marker %q found in both the pasted text and the original string; paste aborted", m),
			}, nil
		}
		if inPasted {
			pasted = strings.ReplaceAll(pasted, m, "")
		}
	}

	text := applyMappings(pasted, mappings)

	syn := r.d.Tags
	holders := tags.Of(syn.Tokenize(text), tags.Placeholder)
	want := r.resolvedTokens(original)
	if len(holders) > 0 && len(holders) == len(want) {
		text = r.resolveByPosition(text, holders, want, playerPlaceholder)
		holders = tags.Of(syn.Tokenize(text), tags.Placeholder)
	}

	if len(holders) > 0 {
		return Result{
			Text:   text,
			Status: UnresolvedPlaceholders,
			Message: i18n.Tf("%d placeholder tag(s) left unresolved: %s",
				len(holders), strings.Join(tagTexts(holders), " ")),
		}, nil
	}

	got := r.resolvedTokens(text)
	if len(got) != len(want) {
		return Result{
			Text:   text,
			Status: Warning,
			Message: i18n.Tf("Tag count mismatch: pasted %d [%s], original %d [%s]",
				len(got), strings.Join(got, " "), len(want), strings.Join(want, " ")),
		}, nil
	}
	return Result{Text: text, Status: OK, Message: i18n.T("All tags reconciled")}, nil
}

// applyMappings replaces every mapped placeholder, longest first so that a
// placeholder never clobbers a longer one containing it.
func applyMappings(text string, mappings map[string]string) string {
	keys := make([]string, 0, len(mappings))
	for k := range mappings {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		text = strings.ReplaceAll(text, k, mappings[k])
	}
	return text
}

func (r *Reconciler) resolveByPosition(text string, holders []tags.Tag, want []string, player string) string {
	var b strings.Builder
	prev := 0
	for i, h := range holders {
		b.WriteString(text[prev:h.Start])
		if h.Text == player && r.d.Player.Resolved != "" {
			b.WriteString(r.d.Player.Resolved)
		} else {
			b.WriteString(want[i])
		}
		prev = h.End
	}
	b.WriteString(text[prev:])
	return b.String()
}

// resolvedTokens lists the resolved tags of text in order, with every
// player construct collapsed to one token.
func (r *Reconciler) resolvedTokens(text string) []string {
	var spans [][]int
	if r.d.Player.Pattern != nil {
		spans = r.d.Player.Pattern.FindAllStringIndex(text, -1)
	}
	var out []string
	si, emitted := 0, -1
	for _, t := range tags.Of(r.d.Tags.Tokenize(text), tags.Resolved) {
		for si < len(spans) && spans[si][1] <= t.Start {
			si++
		}
		if si < len(spans) && t.Start >= spans[si][0] && t.End <= spans[si][1] {
			if emitted != si {
				out = append(out, r.playerToken(text[spans[si][0]:spans[si][1]]))
				emitted = si
			}
			continue
		}
		out = append(out, t.Text)
	}
	return out
}

func (r *Reconciler) playerToken(construct string) string {
	if r.d.Player.Resolved != "" {
		return r.d.Player.Resolved
	}
	return construct
}

func tagTexts(ts []tags.Tag) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Text
	}
	return out
}
