// Package scan analyzes every translated string of a catalog
// concurrently and optionally previews the autofix of each one.
package scan

import (
	"context"
	"runtime"

	"github.com/minios-linux/dlgkit/analyze"
	"github.com/minios-linux/dlgkit/dialect"
	"github.com/minios-linux/dlgkit/document"
	"github.com/minios-linux/dlgkit/fontmap"
	"github.com/minios-linux/dlgkit/reflow"
	"github.com/rs/zerolog/log"
)

// Options configures Run.
type Options struct {
	Dialect *dialect.Dialect
	Font    *fontmap.Map
	// Threshold overrides the dialect width budget when positive.
	Threshold int
	// Workers bounds concurrency; zero means GOMAXPROCS.
	Workers int
	// Fix computes the autofixed text of every string with problems.
	Fix   bool
	Fixes dialect.FixSet
	// Skip, when set, excludes strings from the scan. Skipped strings
	// still count towards block page offsets.
	Skip func(block, str int, source, translation string) bool
}

// Finding is the analysis of one string.
type Finding struct {
	Block  int
	String int
	// BlockName and ID identify the string for reports.
	BlockName string
	ID        string

	Source      string
	Translation string
	LineOffset  int
	Report      analyze.Report

	// Fixed is the autofixed translation when Options.Fix is set and the
	// string had problems.
	Fixed     string
	Changed   bool
	Converged bool
}

// Clean reports whether the string has no problem.
func (f Finding) Clean() bool { return f.Report.Clean() }

// Problems returns the problems of the string, merged over its lines.
func (f Finding) Problems() dialect.ProblemSet { return f.Report.Union() }

// Dirty filters findings down to the ones with problems.
func Dirty(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if !f.Clean() {
			out = append(out, f)
		}
	}
	return out
}

// Run analyzes every translated string of cat. Untranslated strings are
// not reported. Findings come back in catalog order. When ctx is
// cancelled, Run returns the findings completed so far and ctx.Err().
func Run(ctx context.Context, cat *document.Catalog, opts Options) ([]Finding, error) {
	tasks := plan(cat, opts)
	checker := analyze.NewChecker(opts.Font, opts.Threshold, opts.Dialect)

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := newPool(workers, func(_ context.Context, f Finding) Finding {
		f.Report = checker.Analyze(f.Translation, analyze.Options{LineOffset: f.LineOffset})
		if opts.Fix && !f.Report.Clean() {
			res := reflow.Fix(f.Translation, reflow.Options{
				Font:       opts.Font,
				Dialect:    opts.Dialect,
				Threshold:  opts.Threshold,
				Fixes:      opts.Fixes,
				LineOffset: f.LineOffset,
			})
			f.Fixed, f.Changed, f.Converged = res.Text, res.Changed, res.Converged
			if !res.Converged {
				log.Warn().Str("block", f.BlockName).Str("id", f.ID).Int("passes", res.Passes).Msg("autofix did not converge")
			}
		}
		return f
	})

	jobs := p.run(ctx, tasks)
	out := make([]Finding, 0, len(jobs))
	for _, j := range jobs {
		if j.Done {
			out = append(out, j.Out)
		}
	}
	log.Debug().Int("strings", cat.Len()).Int("scanned", len(out)).Int("workers", workers).Msg("scan finished")
	return out, ctx.Err()
}

// plan lists the strings to analyze with their display line offsets.
func plan(cat *document.Catalog, opts Options) []Finding {
	d := opts.Dialect
	var tasks []Finding
	for b := 0; b < cat.Blocks(); b++ {
		blk := cat.Block(b)
		offset := 0
		for s, str := range blk.Strings {
			lineOffset := 0
			if d.PageScope == dialect.PageScopeBlock {
				lineOffset = offset
			}
			shown := str.Translation
			if shown == "" {
				shown = str.Source
			}
			offset += len(analyze.Split(shown, d.Separators))

			if str.Translation == "" {
				continue
			}
			if opts.Skip != nil && opts.Skip(b, s, str.Source, str.Translation) {
				continue
			}
			tasks = append(tasks, Finding{
				Block:       b,
				String:      s,
				BlockName:   blk.Name,
				ID:          str.ID,
				Source:      str.Source,
				Translation: str.Translation,
				LineOffset:  lineOffset,
			})
		}
	}
	return tasks
}
