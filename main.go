// dlgkit (Dialogue Kit): line-width checker, autofixer and tag checker for
// translated game dialogue.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/minios-linux/dlgkit/analyze"
	"github.com/minios-linux/dlgkit/config"
	"github.com/minios-linux/dlgkit/dialect"
	"github.com/minios-linux/dlgkit/document"
	"github.com/minios-linux/dlgkit/fontmap"
	"github.com/minios-linux/dlgkit/i18n"
	"github.com/minios-linux/dlgkit/lockfile"
	"github.com/minios-linux/dlgkit/paste"
	"github.com/minios-linux/dlgkit/scan"
	"github.com/minios-linux/dlgkit/tagcheck"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
	dialectArg string
	fontArg    string
	threshold  int
	logLevel   string
	langArg    string

	// settings is resolved once per run, before any subcommand.
	settings *config.Settings

	// logOutput receives zerolog output.
	logOutput io.Writer = os.Stderr
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dlgkit",
		Short: "Dialogue Kit: width checker, autofixer and tag checker for game dialogue",
		Long: `dlgkit (Dialogue Kit): line-width checker, autofixer and tag checker for
translated game dialogue.

Dialogue is read from gettext PO files or YAML dialogue files. Each string is
split into display lines and checked against a per-character font width table
and the layout rules of a dialect.

Commands:
  width      Measure the display lines of a text
  scan       Report layout problems in every translated string
  fix        Rewrite strings with layout problems
  check      Walk the tags of every string and stop on mismatches
  paste      Reconcile placeholder tags of a pasted segment
  dialects   List or show dialects`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
	}

	// Global persistent flags, inherited by all subcommands
	pf := root.PersistentFlags()
	pf.StringVar(&rootDir, "root", ".", "Project root directory")
	pf.StringVar(&configPath, "config", "", "Project file (default: <root>/"+config.ProjectFileName+")")
	pf.StringVar(&dialectArg, "dialect", "", "Dialect name or dialect YAML file (or "+config.EnvDialect+")")
	pf.StringVar(&fontArg, "font", "", "Font width table (or "+config.EnvFont+")")
	pf.IntVar(&threshold, "threshold", 0, "Width budget per line in pixels (0 = dialect default)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (or "+config.EnvLogLevel+")")
	pf.StringVar(&langArg, "lang", "", "Interface language (default: from environment)")

	root.AddCommand(
		newWidthCmd(),
		newScanCmd(),
		newFixCmd(),
		newCheckCmd(),
		newPasteCmd(),
		newDialectsCmd(),
		newVersionCmd(),
	)

	return root
}

// setup applies flags on top of the project file and the environment,
// then configures logging and the interface language.
func setup(cmd *cobra.Command) error {
	i18n.Init(langArg)

	// settings loading logs too; start from the flag or environment level
	early := logLevel
	if early == "" {
		early = os.Getenv(config.EnvLogLevel)
	}
	if early == "" {
		early = "info"
	}
	if err := setupLogging(early); err != nil {
		return err
	}

	s, err := config.Load(rootDir, configPath)
	if err != nil {
		return err
	}
	if f := cmd.Flag("dialect"); f != nil && f.Changed {
		s.Dialect = dialectArg
		s.ForceDialect = true
	}
	if f := cmd.Flag("font"); f != nil && f.Changed {
		s.Font = fontArg
	}
	if f := cmd.Flag("threshold"); f != nil && f.Changed {
		if threshold < 0 {
			return fmt.Errorf("--threshold must not be negative (got %d)", threshold)
		}
		s.Threshold = threshold
	}
	if f := cmd.Flag("log-level"); f != nil && f.Changed {
		s.LogLevel = logLevel
	}
	if err := setupLogging(s.LogLevel); err != nil {
		return err
	}
	settings = s
	log.Debug().Str("root", s.Root).Str("dialect", s.Dialect).Str("font", s.Font).Int("threshold", s.Threshold).Str("lang", i18n.Lang()).Msg("settings resolved")
	return nil
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logOutput})
	return nil
}

// setupContext returns a context cancelled on SIGINT or SIGTERM.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logWarning("%s", i18n.T("Interrupted, stopping..."))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		// version needs no project
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dlgkit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// displayID renders a string id for humans; PO context and msgid are
// joined by EOT in ids.
func displayID(id string) string {
	return strings.ReplaceAll(id, "\x04", "|")
}

// relPath returns path relative to the project root when possible.
func relPath(path string) string {
	if rel, err := filepath.Rel(settings.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

// loaded is a target with its dialect and catalog ready.
type loaded struct {
	target  config.Target
	dialect *dialect.Dialect
	catalog *document.Catalog
}

// loadTargets resolves and loads every document selected by args.
func loadTargets(args []string) ([]loaded, error) {
	targets, err := settings.Targets(args)
	if err != nil {
		return nil, err
	}
	var out []loaded
	for _, t := range targets {
		d, err := settings.LoadDialect(t.Dialect)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", t.Name, err)
		}
		cat, err := document.Load(t.Files)
		if err != nil {
			return nil, err
		}
		out = append(out, loaded{target: t, dialect: d, catalog: cat})
	}
	return out, nil
}

// sectionHeader prints a blue title with a divider.
func sectionHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, title, colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))
}

// lineReport formats the per-line problems of a finding, one entry per
// line that has any. Tag warnings name the unknown tags.
func lineReport(rep analyze.Report, d *dialect.Dialect) []string {
	var out []string
	for i, set := range rep.Problems {
		if set.Empty() {
			continue
		}
		line := i18n.Tf("line %d: %s", i+1, set)
		if set.Has(dialect.TagWarning) {
			line += " " + strings.Join(analyze.IllegitimateTags(rep.Sublines[i].Text, d), " ")
		}
		out = append(out, line)
	}
	return out
}

// ---------------------------------------------------------------------------
// width (measure display lines)
// ---------------------------------------------------------------------------

func newWidthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "width [text...]",
		Short: "Measure the display lines of a text",
		Long: `Split each text into display lines with the dialect separators and print
the width of every line against the width budget, together with the layout
problems of the text. Reads standard input when no text is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if len(texts) == 0 {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				texts = []string{strings.TrimSuffix(string(data), "\n")}
			}
			d, err := settings.LoadDialect("")
			if err != nil {
				return err
			}
			fm, err := settings.LoadFont()
			if err != nil {
				return err
			}
			for _, text := range texts {
				writeWidths(os.Stdout, text, analyze.NewChecker(fm, settings.Threshold, d))
			}
			return nil
		},
	}

	return cmd
}

// writeWidths prints one row per display line: number, width against the
// budget, problems and text.
func writeWidths(w io.Writer, text string, c *analyze.Checker) {
	rep := c.Analyze(text, analyze.Options{})
	for i, sub := range rep.Sublines {
		width := c.Measure(sub.Text)
		color := colorGreen
		if width > c.Threshold {
			color = colorRed
		}
		problems := ""
		if set := rep.Problems[i]; !set.Empty() {
			problems = " " + colorYellow + "[" + set.String()
			if set.Has(dialect.TagWarning) {
				problems += ": " + strings.Join(analyze.IllegitimateTags(sub.Text, c.D), " ")
			}
			problems += "]" + colorReset
		}
		fmt.Fprintf(w, "%3d  %s%4d%s/%d  %s%s\n", i+1, color, width, colorReset, c.Threshold, highlightTags(sub.Text, c.D), problems)
	}
}

// highlightTags colors the tags of text.
func highlightTags(text string, d *dialect.Dialect) string {
	var b strings.Builder
	for _, seg := range d.Tags.Segments(text) {
		if seg.Tag != nil {
			b.WriteString(colorBlue + seg.Text + colorReset)
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// scan (report problems)
// ---------------------------------------------------------------------------

type scanArgs struct {
	changed bool
	preview bool
	workers int
}

func newScanCmd() *cobra.Command {
	var a scanArgs

	cmd := &cobra.Command{
		Use:   "scan [files...]",
		Short: "Report layout problems in every translated string",
		Long: `Analyze every translated string of the project documents (or of the given
files) and report the display lines with problems.

With --changed, strings that scanned clean before and did not change since
are skipped; their checksums are kept in ` + lockfile.LockFileName + `.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			return runScan(ctx, args, a)
		},
	}

	cmd.Flags().BoolVar(&a.changed, "changed", false, "Only scan strings changed since they last scanned clean")
	cmd.Flags().BoolVar(&a.preview, "preview", false, "Show the autofix result of each string with problems")
	cmd.Flags().IntVar(&a.workers, "workers", 0, "Concurrent workers (0 = project setting or number of CPUs)")

	return cmd
}

func runScan(ctx context.Context, args []string, a scanArgs) error {
	docs, err := loadTargets(args)
	if err != nil {
		return err
	}
	fm, err := settings.LoadFont()
	if err != nil {
		return err
	}

	var lock *lockfile.LockFile
	if a.changed {
		fp, err := fingerprint(fm)
		if err != nil {
			return err
		}
		if lock, err = lockfile.Load(settings.Root, fp); err != nil {
			return err
		}
	}

	workers := a.workers
	if workers == 0 {
		workers = settings.Workers
	}

	scanned, dirty := 0, 0
	for _, doc := range docs {
		sectionHeader(os.Stderr, i18n.Tf("Document %s (%s)", doc.target.Name, doc.dialect.Name))
		cat := doc.catalog
		opts := scan.Options{
			Dialect:   doc.dialect,
			Font:      fm,
			Threshold: settings.Threshold,
			Workers:   workers,
			Fix:       a.preview,
		}
		if lock != nil {
			opts.Skip = func(b, s int, source, translation string) bool {
				blk := cat.Block(b)
				return !lock.IsChanged(lockfile.BlockKey(relPath(blk.Path)), blk.Strings[s].ID, lockfile.StringContent(source, translation))
			}
		}

		findings, runErr := scan.Run(ctx, cat, opts)
		scanned += len(findings)
		if lock != nil {
			for _, f := range findings {
				key := lockfile.BlockKey(relPath(cat.Block(f.Block).Path))
				if f.Clean() {
					lock.Update(key, f.ID, lockfile.StringContent(f.Source, f.Translation))
				} else {
					lock.Forget(key, f.ID)
				}
			}
		}
		for _, f := range scan.Dirty(findings) {
			dirty++
			logWarning("%s: %s [%s]", f.BlockName, displayID(f.ID), f.Problems())
			for _, line := range lineReport(f.Report, doc.dialect) {
				fmt.Fprintf(os.Stderr, "    %s\n", line)
			}
			if a.preview && f.Changed {
				fmt.Fprintf(os.Stderr, "    %s\n%s\n", i18n.T("autofix:"), indent(f.Fixed, "      "))
			}
		}
		if runErr != nil {
			return runErr
		}
	}

	if lock != nil {
		for _, doc := range docs {
			for b := 0; b < doc.catalog.Blocks(); b++ {
				blk := doc.catalog.Block(b)
				ids := make([]string, len(blk.Strings))
				for i, s := range blk.Strings {
					ids[i] = s.ID
				}
				lock.Clean(lockfile.BlockKey(relPath(blk.Path)), ids)
			}
		}
		if err := lock.Save(); err != nil {
			return err
		}
		log.Debug().Str("lock", lock.Summary()).Msg("lock file saved")
	}

	fmt.Fprintln(os.Stderr)
	if dirty > 0 {
		return fmt.Errorf(i18n.N("%d of %d scanned strings has problems", "%d of %d scanned strings have problems", dirty), dirty, scanned)
	}
	logSuccess(i18n.N("%d string scanned, no problems found", "%d strings scanned, no problems found", scanned), scanned)
	return nil
}

// fingerprint identifies the settings a lock file is valid for.
func fingerprint(fm *fontmap.Map) (string, error) {
	font, err := fm.Marshal()
	if err != nil {
		return "", fmt.Errorf("marshaling font table: %w", err)
	}
	var project []byte
	if settings.ProjectPath != "" {
		if project, err = os.ReadFile(settings.ProjectPath); err != nil {
			return "", fmt.Errorf("reading %s: %w", settings.ProjectPath, err)
		}
	}
	return lockfile.Fingerprint(version, settings.Dialect, strconv.Itoa(settings.Threshold), string(font), string(project)), nil
}

// ---------------------------------------------------------------------------
// fix (rewrite strings)
// ---------------------------------------------------------------------------

type fixArgs struct {
	write   bool
	fixes   []string
	workers int
}

func newFixCmd() *cobra.Command {
	var a fixArgs

	cmd := &cobra.Command{
		Use:   "fix [files...]",
		Short: "Rewrite strings with layout problems",
		Long: `Run the autofix over every translated string with problems and show the
result. Nothing is written unless --write is given.

Available fixes: ` + dialect.AllFixes().String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			return runFix(ctx, args, a)
		},
	}

	cmd.Flags().BoolVar(&a.write, "write", false, "Write the fixed strings back to their files")
	cmd.Flags().StringSliceVar(&a.fixes, "fixes", nil, "Fixes to run (comma-separated, default: the dialect's)")
	cmd.Flags().IntVar(&a.workers, "workers", 0, "Concurrent workers (0 = project setting or number of CPUs)")

	return cmd
}

// parseFixes turns fix names into a FixSet; no names means the zero set,
// which selects the dialect's fixes.
func parseFixes(names []string) (dialect.FixSet, error) {
	var fixes []dialect.Fix
	for _, name := range names {
		f, err := dialect.ParseFix(strings.TrimSpace(name))
		if err != nil {
			return 0, err
		}
		fixes = append(fixes, f)
	}
	if len(fixes) == 0 {
		return 0, nil
	}
	return dialect.Fixes(fixes...), nil
}

func runFix(ctx context.Context, args []string, a fixArgs) error {
	fixes, err := parseFixes(a.fixes)
	if err != nil {
		return err
	}
	docs, err := loadTargets(args)
	if err != nil {
		return err
	}
	fm, err := settings.LoadFont()
	if err != nil {
		return err
	}
	workers := a.workers
	if workers == 0 {
		workers = settings.Workers
	}

	changed, written := 0, 0
	for _, doc := range docs {
		sectionHeader(os.Stderr, i18n.Tf("Document %s (%s)", doc.target.Name, doc.dialect.Name))
		findings, err := scan.Run(ctx, doc.catalog, scan.Options{
			Dialect:   doc.dialect,
			Font:      fm,
			Threshold: settings.Threshold,
			Workers:   workers,
			Fix:       true,
			Fixes:     fixes,
		})
		if err != nil {
			return err
		}
		for _, f := range findings {
			if !f.Changed {
				continue
			}
			changed++
			logInfo("%s: %s", f.BlockName, displayID(f.ID))
			fmt.Fprintf(os.Stderr, "%s\n%s\n", indent(f.Translation, colorRed+"  - "+colorReset), indent(f.Fixed, colorGreen+"  + "+colorReset))
			if !f.Converged {
				logWarning("%s", i18n.T("autofix stopped at the pass limit; result is best effort"))
			}
			doc.catalog.SetTranslation(f.Block, f.String, f.Fixed)
		}
		if a.write {
			n, err := doc.catalog.Save()
			if err != nil {
				return err
			}
			written += n
		}
	}

	fmt.Fprintln(os.Stderr)
	switch {
	case changed == 0:
		logSuccess("%s", i18n.T("Nothing to fix"))
	case a.write:
		logSuccess(i18n.N("%d string fixed, %d file written", "%d strings fixed, %d files written", changed), changed, written)
	default:
		logInfo(i18n.N("%d string would change (dry run, use --write to apply)", "%d strings would change (dry run, use --write to apply)", changed), changed)
	}
	return nil
}

// ---------------------------------------------------------------------------
// check (tag correspondence)
// ---------------------------------------------------------------------------

type checkArgs struct {
	at    string
	batch bool
}

func newCheckCmd() *cobra.Command {
	var a checkArgs

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Walk the tags of every string and stop on mismatches",
		Long: `Compare the tags of every source string with its translation, one full
cycle through the document starting at --at (block:id). The walk pauses on
every source tag that has no counterpart in the translation: press Enter to
continue or q to quit. With --batch every mismatch is listed without pausing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := loadTargets(args)
			if err != nil {
				return err
			}
			in := bufio.NewReader(os.Stdin)
			mismatches := 0
			for _, doc := range docs {
				sectionHeader(os.Stderr, i18n.Tf("Document %s (%s)", doc.target.Name, doc.dialect.Name))
				at, err := startPosition(doc.catalog, a.at)
				if err != nil {
					return err
				}
				sum, quit := checkSession(tagcheck.New(doc.dialect), doc.catalog, at, in, os.Stderr, a.batch)
				mismatches += sum.Mismatches
				if quit {
					logInfo("%s", i18n.T("Check stopped"))
					return nil
				}
				if sum.AllMatched {
					logSuccess(i18n.N("%d tag checked, all matched", "%d tags checked, all matched", sum.TagsChecked), sum.TagsChecked)
				}
			}
			if mismatches > 0 {
				return fmt.Errorf(i18n.N("%d tag mismatch", "%d tag mismatches", mismatches), mismatches)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&a.at, "at", "", "Start position as block:id (default: first string)")
	cmd.Flags().BoolVar(&a.batch, "batch", false, "List all mismatches without pausing")

	return cmd
}

// startPosition resolves a "block:id" (or bare "id") start position.
func startPosition(cat *document.Catalog, at string) (tagcheck.Position, error) {
	if at == "" {
		return tagcheck.Position{}, nil
	}
	block, id, ok := strings.Cut(at, ":")
	if !ok {
		block, id = "", at
	}
	b, s, found := cat.Locate(block, id)
	if !found {
		return tagcheck.Position{}, fmt.Errorf("no string %q in the document", at)
	}
	return tagcheck.Position{Block: b, String: s}, nil
}

// checkSession runs one tag-check cycle over cat, reporting mismatches to
// out. Unless batch is set, it pauses on every mismatch and reads a line
// from in: q (or end of input) quits.
func checkSession(chk *tagcheck.Checker, cat *document.Catalog, at tagcheck.Position, in *bufio.Reader, out io.Writer, batch bool) (tagcheck.Summary, bool) {
	st := chk.Start(cat, at)
	for {
		if chk.Step(cat, st) == tagcheck.EventComplete {
			return st.Summary, false
		}
		m := st.Mismatch()
		blk := cat.Block(m.Block)
		str := blk.Strings[m.String]
		fmt.Fprintf(out, colorYellow+"[WARN]"+colorReset+" %s: %s\n", blk.Name, displayID(str.ID))
		fmt.Fprintf(out, "    %s\n", i18n.Tf("tag %s (at %d) has no counterpart", m.Tag.Text, m.Tag.Start))
		fmt.Fprintf(out, "%s\n%s\n", indent(str.Source, "    src: "), indent(str.Translation, "    tr:  "))
		if batch {
			continue
		}
		fmt.Fprint(out, i18n.T("[Enter] continue, [q] quit: "))
		line, err := in.ReadString('\n')
		if strings.EqualFold(strings.TrimSpace(line), "q") || (err != nil && line == "") {
			return st.Summary, true
		}
	}
}

// ---------------------------------------------------------------------------
// paste (reconcile placeholder tags)
// ---------------------------------------------------------------------------

type pasteArgs struct {
	original string
	pasted   string
	mappings map[string]string
	player   string
	noMaps   bool
}

func newPasteCmd() *cobra.Command {
	var a pasteArgs

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Reconcile placeholder tags of a pasted segment",
		Long: `Resolve the placeholder tags of a pasted segment (--pasted, or standard
input) against the resolved tags of the original string. The dialect's tag
mappings are applied first, then any --map pairs; remaining placeholders are
resolved by position. The result is printed to standard output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pasted") {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				a.pasted = strings.TrimSuffix(string(data), "\n")
			}
			d, err := settings.LoadDialect("")
			if err != nil {
				return err
			}
			res, err := reconcile(d, a)
			if err != nil {
				return err
			}
			fmt.Println(res.Text)
			switch res.Status {
			case paste.OK:
				logSuccess("%s", res.Message)
			case paste.Warning:
				logWarning("%s", res.Message)
			default:
				return fmt.Errorf("%s: %s", res.Status, res.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&a.original, "original", "", "Original string with resolved tags (required)")
	cmd.Flags().StringVar(&a.pasted, "pasted", "", "Pasted segment (default: read standard input)")
	cmd.Flags().StringToStringVar(&a.mappings, "map", nil, "Extra placeholder=resolved mappings")
	cmd.Flags().StringVar(&a.player, "player", "", "Player-name placeholder (default: the dialect's)")
	cmd.Flags().BoolVar(&a.noMaps, "no-dialect-maps", false, "Do not apply the dialect's tag mappings")
	_ = cmd.MarkFlagRequired("original")

	return cmd
}

// reconcile merges the mapping tables and runs the reconciler.
func reconcile(d *dialect.Dialect, a pasteArgs) (paste.Result, error) {
	mappings := make(map[string]string)
	if !a.noMaps {
		for k, v := range d.Mappings {
			mappings[k] = v
		}
	}
	for k, v := range a.mappings {
		mappings[k] = v
	}
	return paste.New(d).Reconcile(a.pasted, a.original, mappings, a.player)
}

// ---------------------------------------------------------------------------
// dialects (list / show)
// ---------------------------------------------------------------------------

func newDialectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dialects",
		Short: "List or show dialects",
		Long: `List the built-in dialects and the dialects declared in the project file.
"dialects show NAME" prints a dialect declaration as YAML, a starting point
for a custom dialect.`,
		Run: func(cmd *cobra.Command, args []string) {
			for _, row := range dialectRows() {
				fmt.Fprintln(cmd.OutOrStdout(), row)
			}
		},
	}

	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a dialect declaration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := dialectYAML(args[0])
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
	cmd.AddCommand(show)

	return cmd
}

// dialectRows lists dialect names with their origin, the default marked.
func dialectRows() []string {
	origin := make(map[string]string)
	for _, name := range dialect.Names() {
		origin[name] = i18n.T("built-in")
	}
	if settings.Project != nil {
		for _, e := range settings.Project.Dialects {
			origin[e.Name] = i18n.T("project")
			if e.File != "" {
				origin[e.Name] = i18n.T("project") + ", " + e.File
			}
		}
	}
	names := make([]string, 0, len(origin))
	for name := range origin {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]string, len(names))
	for i, name := range names {
		mark := "  "
		if name == settings.Dialect {
			mark = "* "
		}
		rows[i] = fmt.Sprintf("%s%-16s (%s)", mark, name, origin[name])
	}
	return rows
}

func dialectYAML(name string) ([]byte, error) {
	if e, ok := settings.Project.FindDialect(name); ok {
		if e.File != "" {
			return os.ReadFile(settings.Path(e.File))
		}
		return e.Spec.Marshal()
	}
	s, err := dialect.Builtin(name)
	if err != nil {
		return nil, err
	}
	return s.Marshal()
}
