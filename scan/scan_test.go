package scan

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/dlgkit/dialect"
	"github.com/minios-linux/dlgkit/document"
	"github.com/minios-linux/dlgkit/fontmap"
)

func options(t *testing.T) Options {
	t.Helper()
	d, err := dialect.Lookup(dialect.Generic)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return Options{Dialect: d, Font: fontmap.New(6), Workers: 4}
}

var long = strings.Repeat("word ", 10) + "end"

func sample() *document.Catalog {
	return document.New(document.NewBlock("chapter1",
		[2]string{"Hi", "Привет"},
		[2]string{"Long", long},
		[2]string{"Untranslated", ""},
	))
}

func TestRun(t *testing.T) {
	got, err := Run(context.Background(), sample(), options(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("findings = %d, want 2 (untranslated strings are not scanned)", len(got))
	}
	if !got[0].Clean() || got[0].String != 0 {
		t.Fatalf("finding 0 = %+v, want clean string 0", got[0])
	}
	if got[1].String != 1 || !got[1].Problems().Has(dialect.WidthExceeded) {
		t.Fatalf("finding 1 problems = %v, want width_exceeded", got[1].Problems())
	}
	if got[1].BlockName != "chapter1" || got[1].ID != "1" {
		t.Fatalf("finding 1 identity = %q/%q", got[1].BlockName, got[1].ID)
	}
	if got[1].Fixed != "" {
		t.Fatal("no fix preview without Options.Fix")
	}
	if dirty := Dirty(got); len(dirty) != 1 || dirty[0].String != 1 {
		t.Fatalf("Dirty = %+v", dirty)
	}
}

func TestRunFixPreview(t *testing.T) {
	opts := options(t)
	opts.Fix = true
	got, err := Run(context.Background(), sample(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	f := got[1]
	if !f.Changed || !f.Converged {
		t.Fatalf("fix = changed %v converged %v", f.Changed, f.Converged)
	}
	for _, line := range strings.Split(f.Fixed, "\n") {
		if w := fontmap.Measure(line, opts.Font, opts.Dialect.Tags); w > opts.Dialect.WidthThreshold {
			t.Fatalf("line %q is %d wide after fix", line, w)
		}
	}
	if !reflect.DeepEqual(strings.Fields(f.Fixed), strings.Fields(long)) {
		t.Fatalf("fix changed the words: %q", f.Fixed)
	}
	if got[0].Fixed != "" || got[0].Changed {
		t.Fatal("clean strings are not fixed")
	}
}

func TestRunSkip(t *testing.T) {
	opts := options(t)
	opts.Skip = func(block, str int, source, translation string) bool { return str == 0 }
	got, err := Run(context.Background(), sample(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0].String != 1 {
		t.Fatalf("findings = %+v, want only string 1", got)
	}
}

func TestBlockPageOffsets(t *testing.T) {
	paged, err := dialect.Parse([]byte("name: paged\nbase: generic\npage_scope: block\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cat := document.New(document.NewBlock("b",
		[2]string{"src1", "one\ntwo"},
		[2]string{"s1\ns2\ns3", ""},
		[2]string{"src3", "three"},
	))

	opts := options(t)
	opts.Dialect = paged
	got, err := Run(context.Background(), cat, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 || got[0].LineOffset != 0 || got[1].LineOffset != 5 {
		t.Fatalf("offsets = %+v, want 0 and 5", got)
	}

	opts = options(t)
	got, err = Run(context.Background(), cat, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got[1].LineOffset != 0 {
		t.Fatalf("per-string paging offset = %d, want 0", got[1].LineOffset)
	}
}

func TestRunOrderIndependentOfWorkers(t *testing.T) {
	var pairs [][2]string
	for i := 0; i < 50; i++ {
		pairs = append(pairs, [2]string{"s", strings.Repeat("x ", i)})
	}
	cat := document.New(document.NewBlock("b", pairs...))

	opts := options(t)
	opts.Workers = 1
	one, err := Run(context.Background(), cat, opts)
	if err != nil {
		t.Fatal(err)
	}
	opts.Workers = 8
	many, err := Run(context.Background(), cat, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(one) != len(many) {
		t.Fatalf("findings = %d vs %d", len(one), len(many))
	}
	for i := range one {
		if one[i].String != many[i].String || one[i].Problems() != many[i].Problems() {
			t.Fatalf("finding %d differs: %+v vs %+v", i, one[i], many[i])
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := Run(ctx, sample(), options(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(got) > 2 {
		t.Fatalf("findings = %d", len(got))
	}
}
