package reflow

import (
	"strings"
	"testing"
	"unicode"

	"github.com/minios-linux/dlgkit/dialect"
	"github.com/minios-linux/dlgkit/fontmap"
)

// testFont renders every character 6px wide and a space 3px wide.
func testFont() *fontmap.Map {
	m := fontmap.New(6)
	m.Set(' ', 3)
	return m
}

func lookup(t *testing.T, name string) *dialect.Dialect {
	t.Helper()
	d, err := dialect.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", name, err)
	}
	return d
}

// content returns the non-whitespace characters of text outside tags.
func content(d *dialect.Dialect, text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, d.Tags.Strip(text))
}

func TestAutofixMergesShortLine(t *testing.T) {
	d := lookup(t, dialect.Generic)
	got, changed := Autofix("Hello\nWorld", testFont(), 1000, d, 0)
	if got != "Hello World" || !changed {
		t.Fatalf("Autofix = %q, %v, want %q, true", got, changed, "Hello World")
	}

	got, changed = Autofix("Hello.\nWorld", testFont(), 1000, d, 0)
	if got != "Hello.\nWorld" || changed {
		t.Fatalf("Autofix = %q, %v, want unchanged", got, changed)
	}
}

func TestAutofixRemovesEmptyOddLine(t *testing.T) {
	d := lookup(t, dialect.Generic)
	got, changed := Autofix("0\nReal text", testFont(), 1000, d, 0)
	if got != "Real text" || !changed {
		t.Fatalf("Autofix = %q, %v, want %q, true", got, changed, "Real text")
	}
}

func TestSingleFixes(t *testing.T) {
	d := lookup(t, dialect.Generic)
	fm := testFont()
	cases := []struct {
		name  string
		fixes dialect.FixSet
		in    string
		want  string
	}{
		{"page start", dialect.Fixes(dialect.FixEmptyFirstLineOfPage), "a.\nb.\n\nc.", "a.\nb.\nc."},
		{"page start first", dialect.Fixes(dialect.FixEmptyFirstLineOfPage), "\nHello.", "Hello."},
		{"blank page kept", dialect.Fixes(dialect.FixEmptyFirstLineOfPage), "a.\nb.\n\n", "a.\nb.\n\n"},
		{"odd middle", dialect.Fixes(dialect.FixEmptyOddSubline), "a.\nb.\n0\nc.", "a.\nb.\nc."},
		{"odd last", dialect.Fixes(dialect.FixEmptyOddSubline), "a.\nb.\n ", "a.\nb."},
		{"even kept", dialect.Fixes(dialect.FixEmptyOddSubline), "Hi.\n0", "Hi.\n0"},
		{"odd chain", dialect.Fixes(dialect.FixEmptyOddSubline), "0\n0\nX", "X"},
		{"merge keeps tags", dialect.Fixes(dialect.FixShortLine), "Hi [Name]\n{Color:Red}you{Color:Default} there.", "Hi [Name] {Color:Red}you{Color:Default} there."},
		{"merge no double space", dialect.Fixes(dialect.FixShortLine), "Hello   \n   World", "Hello World"},
		{"spacing", dialect.Fixes(dialect.FixTagSpacing), "{Br} Hello", "{Br}Hello"},
		{"spacing tabs", dialect.Fixes(dialect.FixTagSpacing), "a{Br} \t x", "a{Br}x"},
		{"spacing punct", dialect.Fixes(dialect.FixTagSpacing), "{Br} ...", "{Br} ..."},
		{"spacing other tags", dialect.Fixes(dialect.FixTagSpacing), "{Color:Default} x", "{Color:Default} x"},
	}
	for _, tc := range cases {
		got, _ := Autofix(tc.in, fm, 1000, d, tc.fixes)
		if got != tc.want {
			t.Fatalf("%s: Autofix(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestWidthSplit(t *testing.T) {
	d := lookup(t, dialect.Generic)
	fm := testFont()
	cases := []struct {
		name      string
		in        string
		threshold int
		want      string
	}{
		// 4 letters = 24px, a space 3px: two words are 51px, three 78px.
		{"rightmost prefix", "aaaa bbbb cccc dddd", 60, "aaaa bbbb\ncccc dddd"},
		{"forced after first token", "aaaaa bb", 10, "aaaaa\nbb"},
		{"single word stays", "aaaaaaaaaaaa", 10, "aaaaaaaaaaaa"},
		{"tags stay whole", "{Color:Red}aaaa bbbb{Color:Default} cccc", 60, "{Color:Red}aaaa bbbb{Color:Default}\ncccc"},
		{"tag with spaces", "aaaa {Item:Big Sword}bbbb cccc", 60, "aaaa {Item:Big Sword}bbbb\ncccc"},
	}
	for _, tc := range cases {
		got, _ := Autofix(tc.in, fm, tc.threshold, d, dialect.Fixes(dialect.FixWidthSplit))
		if got != tc.want {
			t.Fatalf("%s: Autofix(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
		if content(d, got) != content(d, tc.in) {
			t.Fatalf("%s: split dropped content: %q -> %q", tc.name, tc.in, got)
		}
		if strings.Count(got, "{") != strings.Count(tc.in, "{") {
			t.Fatalf("%s: split broke a tag: %q", tc.name, got)
		}
	}
}

func TestWidthSplitEscapedDialect(t *testing.T) {
	d := lookup(t, dialect.Escaped)
	got, _ := Autofix(`aaaa bbbb cccc dddd\nee.`, testFont(), 60, d, dialect.Fixes(dialect.FixWidthSplit))
	if want := `aaaa bbbb\ncccc dddd\nee.`; got != want {
		t.Fatalf("Autofix = %q, want %q", got, want)
	}
}

func TestFixIsIdempotentAtFixpoint(t *testing.T) {
	d := lookup(t, dialect.Generic)
	fm := testFont()
	inputs := []string{
		"",
		"Hello\nWorld",
		"0\nReal text",
		"aaaa bbbb cccc dddd eeee ffff.\n\nnext page",
		"{Color:Red}Bob{Color:Default} says\nhello {Br} there.",
		"one\ntwo\nthree\nfour\nfive",
	}
	for _, in := range inputs {
		first := Fix(in, Options{Font: fm, Dialect: d, Threshold: 60})
		if !first.Converged {
			t.Fatalf("Fix(%q) did not converge in %d passes", in, first.Passes)
		}
		again, changed := Autofix(first.Text, fm, 60, d, 0)
		if changed || again != first.Text {
			t.Fatalf("Autofix(%q) = %q, %v; want a fixpoint", first.Text, again, changed)
		}
	}
}

func TestSplitNeverDropsContent(t *testing.T) {
	d := lookup(t, dialect.Generic)
	fm := testFont()
	for _, in := range []string{
		"the quick brown fox jumps over the lazy dog",
		"  leading and trailing  ",
		"{Color:Red}a{Color:Default} b c d e f g h i j k l m n o p",
		"superlongwordthatcannotfit x",
	} {
		for _, threshold := range []int{1, 20, 45, 90} {
			got, _ := Autofix(in, fm, threshold, d, dialect.Fixes(dialect.FixWidthSplit))
			if content(d, got) != content(d, in) {
				t.Fatalf("threshold %d: %q -> %q changed content", threshold, in, got)
			}
		}
	}
}

func TestPassCapIsReported(t *testing.T) {
	d := *lookup(t, dialect.Generic)
	d.MaxPasses = 1

	res := Fix("Hello\nWorld\nagain", Options{Font: testFont(), Dialect: &d, Threshold: 1000})
	if res.Converged {
		t.Fatal("a single changing pass cannot prove convergence")
	}
	if res.Passes != 1 || !res.Changed {
		t.Fatalf("Passes = %d, Changed = %v", res.Passes, res.Changed)
	}
	if res.Text != "Hello World again" {
		t.Fatalf("Text = %q, want the best-effort result", res.Text)
	}
}

func TestUnchangedConvergesInOnePass(t *testing.T) {
	d := lookup(t, dialect.Generic)
	res := Fix("Fine.", Options{Font: testFont(), Dialect: d})
	if res.Changed || !res.Converged || res.Passes != 1 || res.Text != "Fine." {
		t.Fatalf("Fix = %+v", res)
	}
}
