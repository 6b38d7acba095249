package tags

import (
	"reflect"
	"strings"
	"testing"
)

func texts(ts []Tag) []string {
	var out []string
	for _, t := range ts {
		out = append(out, t.Text)
	}
	return out
}

func TestTokenizeMergesKindsInOrder(t *testing.T) {
	syn := Default()
	text := "{Color:Red}Hi [Name], see {Item}[X]"

	got := syn.Tokenize(text)
	want := []string{"{Color:Red}", "[Name]", "{Item}", "[X]"}
	if !reflect.DeepEqual(texts(got), want) {
		t.Fatalf("Tokenize = %v, want %v", texts(got), want)
	}

	for _, tag := range got {
		if text[tag.Start:tag.End] != tag.Text {
			t.Fatalf("offsets of %q point at %q", tag.Text, text[tag.Start:tag.End])
		}
	}
	if got[0].Kind != Resolved || got[1].Kind != Placeholder {
		t.Fatalf("kinds = %v/%v, want resolved/placeholder", got[0].Kind, got[1].Kind)
	}
	if got[0].Body != "Color:Red" {
		t.Fatalf("Body = %q, want Color:Red", got[0].Body)
	}
}

func TestTokenizeUnterminatedIsLiteral(t *testing.T) {
	syn := Default()
	cases := []struct {
		text string
		want []string
	}{
		{text: "a [b c", want: nil},
		{text: "a [ [B] c", want: []string{"[B]"}},
		{text: "[A\n]", want: nil},
		{text: "x ] y [", want: nil},
		{text: "[[A]]", want: []string{"[A]"}},
	}
	for _, tc := range cases {
		if got := texts(syn.Tokenize(tc.text)); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Tokenize(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestTokenizeMultiCharDelims(t *testing.T) {
	syn := &Syntax{
		Placeholder: []Delim{{Open: "<<", Close: ">>"}},
		Resolved:    []Delim{{Open: "\\c[", Close: "]"}},
	}
	got := texts(syn.Tokenize(`<<Name>> said \c[2]hi<<`))
	want := []string{"<<Name>>", `\c[2]`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestNilSyntaxHasNoTags(t *testing.T) {
	var syn *Syntax
	if got := syn.Tokenize("[A]"); got != nil {
		t.Fatalf("nil syntax Tokenize = %v, want nil", got)
	}
	if got := syn.Strip("[A]"); got != "[A]" {
		t.Fatalf("nil syntax Strip = %q, want [A]", got)
	}
}

func TestStripAndOf(t *testing.T) {
	syn := Default()
	text := "[Name] met {Player} and [X]"
	if got := syn.Strip(text); got != " met  and " {
		t.Fatalf("Strip = %q", got)
	}
	if got := len(Of(syn.Tokenize(text), Placeholder)); got != 2 {
		t.Fatalf("Of(placeholder) len = %d, want 2", got)
	}
	if got := len(Of(syn.Tokenize(text), Resolved)); got != 1 {
		t.Fatalf("Of(resolved) len = %d, want 1", got)
	}
}

func TestSegmentsReconstruct(t *testing.T) {
	syn := Default()
	for _, text := range []string{"", "plain", "[A]", "a[B]c{D}", "{x}{y} z"} {
		var b strings.Builder
		for _, seg := range syn.Segments(text) {
			b.WriteString(seg.Text)
			if seg.Tag != nil && seg.Tag.Text != seg.Text {
				t.Fatalf("segment tag %q != text %q", seg.Tag.Text, seg.Text)
			}
		}
		if b.String() != text {
			t.Fatalf("Segments(%q) rebuild = %q", text, b.String())
		}
	}
}

func TestOverlaps(t *testing.T) {
	tag := Tag{Text: "[A]", Start: 2, End: 5}
	cases := []struct {
		start, end int
		want       bool
	}{
		{0, 2, false},
		{0, 3, true},
		{4, 9, true},
		{5, 9, false},
	}
	for _, tc := range cases {
		if got := tag.Overlaps(tc.start, tc.end); got != tc.want {
			t.Fatalf("Overlaps(%d, %d) = %v, want %v", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestTagAt(t *testing.T) {
	ts := Default().Tokenize("ab[C]d")
	if tag, ok := TagAt(ts, 2); !ok || tag.Text != "[C]" {
		t.Fatalf("TagAt(2) = %v, %v", tag, ok)
	}
	if _, ok := TagAt(ts, 3); ok {
		t.Fatal("TagAt(3) should not find a tag")
	}
}
