// Package pofile reads and writes gettext PO files holding dialogue.
//
// Only what a dialogue catalog needs is modelled: comments, references,
// flags, previous msgids, context, singular and plural messages, obsolete
// entries. Entry order and comments survive a read/write cycle so that
// fixes can be written back without disturbing the rest of the file.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Entry is one message of a PO file.
type Entry struct {
	TranslatorComments []string
	ExtractedComments  []string
	References         []string
	Flags              []string

	MsgCtxt      string
	MsgID        string
	MsgIDPlural  string
	MsgStr       string
	MsgStrPlural map[int]string

	// Previous fields hold the "#|" lines msgmerge leaves on fuzzy entries.
	PreviousMsgCtxt     string
	PreviousMsgID       string
	PreviousMsgIDPlural string

	Obsolete bool

	// wrapped records the fields read as an empty first line followed by
	// continuation lines, keyed by keyword ("|" prefixed for previous
	// fields).
	wrapped map[string]bool
}

func (e *Entry) markWrapped(kw string) {
	if e.wrapped == nil {
		e.wrapped = make(map[string]bool)
	}
	e.wrapped[kw] = true
}

// Key identifies an entry the way gettext does: context and msgid joined
// by EOT.
func (e *Entry) Key() string {
	if e.MsgCtxt == "" {
		return e.MsgID
	}
	return e.MsgCtxt + "\x04" + e.MsgID
}

// HasFlag reports whether flag is set on the entry.
func (e *Entry) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// IsFuzzy reports whether the entry carries the fuzzy flag.
func (e *Entry) IsFuzzy() bool { return e.HasFlag("fuzzy") }

// IsDialogue reports whether the entry holds a checkable dialogue string:
// a live singular message.
func (e *Entry) IsDialogue() bool {
	return !e.Obsolete && e.MsgID != "" && e.MsgIDPlural == ""
}

// File is a parsed PO file.
type File struct {
	// Header is the msgid "" entry; nil when the file has none.
	Header  *Entry
	Entries []*Entry
}

// HeaderField returns the value of a header field, case-insensitively.
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		k, v, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Dialogue returns the entries that are dialogue strings, in file order.
func (f *File) Dialogue() []*Entry {
	var out []*Entry
	for _, e := range f.Entries {
		if e.IsDialogue() {
			out = append(out, e)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

type parser struct {
	file *File
	cur  *Entry
	// cont receives the value of a continuation line; kw is the keyword
	// it continues.
	cont func(string)
	kw   string
	// prevCont continues a "#|" field, prevKw names it.
	prevCont func(string)
	prevKw   string
	// done is set once the current entry has its msgstr.
	done bool
	line int
}

func (p *parser) entry() *Entry {
	if p.cur == nil {
		p.cur = &Entry{}
	}
	return p.cur
}

func (p *parser) flush() {
	if p.cur == nil {
		return
	}
	e := p.cur
	if e.MsgID == "" && e.MsgIDPlural == "" && !e.Obsolete && p.file.Header == nil && len(p.file.Entries) == 0 {
		p.file.Header = e
	} else {
		p.file.Entries = append(p.file.Entries, e)
	}
	p.cur = nil
	p.cont = nil
	p.prevCont = nil
	p.done = false
}

func (p *parser) comment(line string) error {
	e := p.entry()
	if len(line) < 2 {
		e.TranslatorComments = append(e.TranslatorComments, "")
		return nil
	}
	body := strings.TrimSpace(line[2:])
	switch line[1] {
	case ':':
		e.References = append(e.References, body)
	case ',':
		for _, fl := range strings.Split(body, ",") {
			if fl = strings.TrimSpace(fl); fl != "" {
				e.Flags = append(e.Flags, fl)
			}
		}
	case '.':
		e.ExtractedComments = append(e.ExtractedComments, body)
	case '|':
		return p.previous(body)
	default:
		e.TranslatorComments = append(e.TranslatorComments, strings.TrimPrefix(line[1:], " "))
	}
	return nil
}

// previous reads the body of a "#|" line: a keyword with its value, or a
// continuation of the previous field.
func (p *parser) previous(body string) error {
	e := p.entry()
	if strings.HasPrefix(body, `"`) {
		if p.prevCont == nil {
			return fmt.Errorf("line %d: previous string without keyword", p.line)
		}
		val, err := unquote(body)
		if err != nil {
			return fmt.Errorf("line %d: %w", p.line, err)
		}
		p.prevCont(val)
		e.markWrapped("|" + p.prevKw)
		return nil
	}

	kw, rest, _ := strings.Cut(body, " ")
	val, err := unquote(rest)
	if err != nil {
		return fmt.Errorf("line %d: %w", p.line, err)
	}
	switch kw {
	case "msgctxt":
		e.PreviousMsgCtxt = val
		p.prevCont = func(s string) { e.PreviousMsgCtxt += s }
	case "msgid":
		e.PreviousMsgID = val
		p.prevCont = func(s string) { e.PreviousMsgID += s }
	case "msgid_plural":
		e.PreviousMsgIDPlural = val
		p.prevCont = func(s string) { e.PreviousMsgIDPlural += s }
	default:
		return fmt.Errorf("line %d: unknown previous keyword %q", p.line, kw)
	}
	p.prevKw = kw
	return nil
}

func (p *parser) keyword(line string) error {
	e := p.entry()
	kw, rest, _ := strings.Cut(line, " ")
	val, err := unquote(rest)
	if err != nil {
		return fmt.Errorf("line %d: %w", p.line, err)
	}
	p.kw = kw
	switch {
	case kw == "msgctxt":
		e.MsgCtxt = val
		p.cont = func(s string) { e.MsgCtxt += s }
	case kw == "msgid":
		e.MsgID = val
		p.cont = func(s string) { e.MsgID += s }
	case kw == "msgid_plural":
		e.MsgIDPlural = val
		p.cont = func(s string) { e.MsgIDPlural += s }
	case kw == "msgstr":
		p.done = true
		e.MsgStr = val
		p.cont = func(s string) { e.MsgStr += s }
	case strings.HasPrefix(kw, "msgstr[") && strings.HasSuffix(kw, "]"):
		n, err := strconv.Atoi(kw[len("msgstr[") : len(kw)-1])
		if err != nil {
			return fmt.Errorf("line %d: invalid plural index in %q", p.line, kw)
		}
		if e.MsgStrPlural == nil {
			e.MsgStrPlural = make(map[int]string)
		}
		e.MsgStrPlural[n] = val
		p.done = true
		p.cont = func(s string) { e.MsgStrPlural[n] += s }
	default:
		return fmt.Errorf("line %d: unknown keyword %q", p.line, kw)
	}
	return nil
}

// Parse reads a PO file.
func Parse(r io.Reader) (*File, error) {
	p := &parser{file: &File{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		p.line++
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			p.flush()
			continue
		}
		obsolete := strings.HasPrefix(trimmed, "#~")
		if obsolete {
			trimmed = strings.TrimSpace(trimmed[2:])
			if trimmed == "" {
				p.entry().Obsolete = true
				continue
			}
			// #~| previous fields of an obsolete entry
			if strings.HasPrefix(trimmed, "|") {
				trimmed = "#" + trimmed
			}
		}

		switch {
		case strings.HasPrefix(trimmed, "#"):
			// a comment after the message starts a new entry
			if p.done {
				p.flush()
			}
			if obsolete {
				p.entry().Obsolete = true
			}
			if err := p.comment(trimmed); err != nil {
				return nil, err
			}
		case strings.HasPrefix(trimmed, `"`):
			if p.cont == nil {
				return nil, fmt.Errorf("line %d: string without keyword", p.line)
			}
			val, err := unquote(trimmed)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", p.line, err)
			}
			p.cont(val)
			p.entry().markWrapped(p.kw)
		default:
			if p.done && (strings.HasPrefix(trimmed, "msgid ") || strings.HasPrefix(trimmed, "msgctxt ")) {
				p.flush()
			}
			if obsolete {
				p.entry().Obsolete = true
			}
			if err := p.keyword(trimmed); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}
	p.flush()
	return p.file, nil
}

// ParseFile reads a PO file from disk.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Write encodes f in PO syntax.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	first := true
	emit := func(e *Entry, header bool) {
		if !first {
			bw.WriteString("\n")
		}
		first = false
		writeEntry(bw, e, header)
	}
	if f.Header != nil {
		emit(f.Header, true)
	}
	for _, e := range f.Entries {
		emit(e, false)
	}
	return bw.Flush()
}

// WriteFile writes f to path, replacing it atomically.
func (f *File) WriteFile(path string) error {
	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := f.Write(out); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// writeEntry writes one entry. The header msgstr always uses the
// continuation form, as gettext writes it.
func writeEntry(w *bufio.Writer, e *Entry, header bool) {
	for _, c := range e.TranslatorComments {
		if c == "" {
			w.WriteString("#\n")
			continue
		}
		fmt.Fprintf(w, "# %s\n", c)
	}
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}
	for _, r := range e.References {
		fmt.Fprintf(w, "#: %s\n", r)
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}

	prefix, prev := "", "#| "
	if e.Obsolete {
		prefix, prev = "#~ ", "#~| "
	}
	if e.PreviousMsgCtxt != "" {
		writeField(w, prev, "msgctxt", e.PreviousMsgCtxt, e.wrapped["|msgctxt"])
	}
	if e.PreviousMsgID != "" {
		writeField(w, prev, "msgid", e.PreviousMsgID, e.wrapped["|msgid"])
	}
	if e.PreviousMsgIDPlural != "" {
		writeField(w, prev, "msgid_plural", e.PreviousMsgIDPlural, e.wrapped["|msgid_plural"])
	}

	if e.MsgCtxt != "" {
		writeField(w, prefix, "msgctxt", e.MsgCtxt, e.wrapped["msgctxt"])
	}
	writeField(w, prefix, "msgid", e.MsgID, e.wrapped["msgid"])
	if e.MsgIDPlural == "" {
		writeField(w, prefix, "msgstr", e.MsgStr, header || e.wrapped["msgstr"])
		return
	}
	writeField(w, prefix, "msgid_plural", e.MsgIDPlural, e.wrapped["msgid_plural"])
	idx := make([]int, 0, len(e.MsgStrPlural))
	for n := range e.MsgStrPlural {
		idx = append(idx, n)
	}
	sort.Ints(idx)
	for _, n := range idx {
		kw := fmt.Sprintf("msgstr[%d]", n)
		writeField(w, prefix, kw, e.MsgStrPlural[n], e.wrapped[kw])
	}
}

// writeField writes a keyword and its value, one quoted line per text line
// when the value spans several lines. A wrapped value holding a newline
// keeps the empty first line even when it has a single text line.
func writeField(w *bufio.Writer, prefix, kw, val string, wrapped bool) {
	multiline := strings.Contains(strings.TrimSuffix(val, "\n"), "\n") ||
		(wrapped && strings.Contains(val, "\n"))
	if !multiline {
		fmt.Fprintf(w, "%s%s %s\n", prefix, kw, quote(val))
		return
	}
	fmt.Fprintf(w, "%s%s \"\"\n", prefix, kw)
	for _, part := range strings.SplitAfter(val, "\n") {
		if part != "" {
			fmt.Fprintf(w, "%s%s\n", prefix, quote(part))
		}
	}
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("malformed string %s", s)
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}
