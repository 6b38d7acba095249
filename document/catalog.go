// Package document loads dialogue catalogs from disk and exposes them as
// blocks of (source, translation) strings.
//
// A block is one file. PO files contribute their live singular entries;
// YAML dialogue files contribute their "strings" list. Translations can be
// edited in memory and written back to the files they came from.
package document

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/dlgkit/pofile"
	"github.com/rs/zerolog/log"
)

// String is one dialogue string of a block.
type String struct {
	// ID identifies the string within its block: the PO key or the YAML id.
	ID          string
	Source      string
	Translation string

	set func(string)
}

// Block is the strings of one file.
type Block struct {
	Name    string
	Path    string
	Strings []*String

	dirty bool
	save  func() error
}

// Dirty reports whether a translation of the block changed since loading.
func (b *Block) Dirty() bool { return b.dirty }

// Catalog is an ordered list of blocks. It satisfies tagcheck.Document.
type Catalog struct {
	blocks []*Block
}

// New builds a catalog from blocks.
func New(blocks ...*Block) *Catalog {
	return &Catalog{blocks: blocks}
}

// NewBlock builds an in-memory block; saving it is a no-op.
func NewBlock(name string, pairs ...[2]string) *Block {
	b := &Block{Name: name}
	for i, p := range pairs {
		b.Strings = append(b.Strings, &String{ID: fmt.Sprint(i), Source: p[0], Translation: p[1]})
	}
	return b
}

func (c *Catalog) Blocks() int { return len(c.blocks) }

func (c *Catalog) Strings(block int) int { return len(c.blocks[block].Strings) }

func (c *Catalog) Source(block, str int) string {
	return c.blocks[block].Strings[str].Source
}

func (c *Catalog) Translation(block, str int) string {
	return c.blocks[block].Strings[str].Translation
}

// Block returns block i.
func (c *Catalog) Block(i int) *Block { return c.blocks[i] }

// String returns string s of block b.
func (c *Catalog) String(b, s int) *String { return c.blocks[b].Strings[s] }

// Len returns the total number of strings.
func (c *Catalog) Len() int {
	n := 0
	for _, b := range c.blocks {
		n += len(b.Strings)
	}
	return n
}

// SetTranslation replaces a translation in memory. Save writes it out.
func (c *Catalog) SetTranslation(b, s int, text string) {
	blk := c.blocks[b]
	str := blk.Strings[s]
	if str.Translation == text {
		return
	}
	str.Translation = text
	if str.set != nil {
		str.set(text)
	}
	blk.dirty = true
}

// Locate finds a string by block name (or path) and string ID.
func (c *Catalog) Locate(block, id string) (int, int, bool) {
	for bi, b := range c.blocks {
		if block != "" && block != b.Name && block != b.Path {
			continue
		}
		for si, s := range b.Strings {
			if s.ID == id {
				return bi, si, true
			}
		}
	}
	return 0, 0, false
}

// Save writes every dirty block back to its file and returns how many
// files were written.
func (c *Catalog) Save() (int, error) {
	n := 0
	for _, b := range c.blocks {
		if !b.dirty || b.save == nil {
			continue
		}
		if err := b.save(); err != nil {
			return n, fmt.Errorf("writing %s: %w", b.Path, err)
		}
		log.Debug().Str("path", b.Path).Msg("block saved")
		b.dirty = false
		n++
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads every file in paths, in order, as one block each.
func Load(paths []string) (*Catalog, error) {
	c := &Catalog{}
	for _, p := range paths {
		b, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		c.blocks = append(c.blocks, b)
	}
	return c, nil
}

// LoadFile reads one PO or YAML dialogue file.
func LoadFile(path string) (*Block, error) {
	var (
		b   *Block
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".po", ".pot":
		b, err = loadPO(path)
	case ".yaml", ".yml":
		b, err = loadYAML(path)
	default:
		return nil, fmt.Errorf("%s: unsupported document type (want .po or .yaml)", path)
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Str("block", b.Name).Int("strings", len(b.Strings)).Msg("block loaded")
	return b, nil
}

func loadPO(path string) (*Block, error) {
	f, err := pofile.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	b := &Block{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path: path,
		save: func() error { return f.WriteFile(path) },
	}
	for _, e := range f.Dialogue() {
		e := e
		b.Strings = append(b.Strings, &String{
			ID:          e.Key(),
			Source:      e.MsgID,
			Translation: e.MsgStr,
			set:         func(t string) { e.MsgStr = t },
		})
	}
	return b, nil
}

// Expand resolves glob patterns relative to root. The result is sorted
// per pattern and free of duplicates; a pattern matching nothing is an
// error.
func Expand(root string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pat := range patterns {
		if !filepath.IsAbs(pat) {
			pat = filepath.Join(root, pat)
		}
		matches, err := filepath.Glob(pat)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pat, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no documents match %q", pat)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}
