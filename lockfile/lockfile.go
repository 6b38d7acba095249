// Package lockfile implements dlgkit.lock, a lock file that tracks MD5
// checksums of the dialogue strings that last scanned clean. This enables
// incremental scans: only new or changed strings are analyzed again.
//
// The checksums are only valid for the settings they were computed with
// (dialect, font table, threshold). The lock file records a fingerprint of
// those settings and forgets every checksum when it changes.
//
// The lock file is stored alongside .dlgkit.yaml as dlgkit.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "dlgkit.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the dlgkit.lock file structure.
type LockFile struct {
	Version int `yaml:"version"`
	// Settings fingerprints the scan settings the checksums belong to.
	Settings  string                       `yaml:"settings"`
	Checksums map[string]map[string]string `yaml:"checksums"` // block -> string id -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the lock file from dir. A missing file, or one written for
// other settings, yields an empty lock file.
func Load(dir, settings string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Settings:  settings,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var disk LockFile
	if err := yaml.Unmarshal(data, &disk); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if disk.Version != Version || disk.Settings != settings {
		log.Debug().Str("path", path).Int("version", disk.Version).Msg("lock file is stale, starting over")
		return lf, nil
	}
	if disk.Checksums != nil {
		lf.Checksums = disk.Checksums
	}
	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// Fingerprint hashes the scan settings into a lock file Settings value.
func Fingerprint(parts ...string) string {
	return Hash(strings.Join(parts, "\x00"))
}

// BlockKey builds the key of a block from its file path.
func BlockKey(path string) string {
	return filepath.ToSlash(path)
}

// StringContent builds the content hashed for a dialogue string. Both
// sides count: a new source or a new translation needs a new scan.
func StringContent(source, translation string) string {
	return source + "\x00" + translation
}

// IsChanged reports whether a string is new or changed since it last
// scanned clean.
func (lf *LockFile) IsChanged(block, id, content string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	ids, ok := lf.Checksums[block]
	if !ok {
		return true
	}
	old, ok := ids[id]
	if !ok {
		return true
	}
	return old != Hash(content)
}

// Update records a string that scanned clean.
func (lf *LockFile) Update(block, id, content string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[block] == nil {
		lf.Checksums[block] = make(map[string]string)
	}
	lf.Checksums[block][id] = Hash(content)
}

// Forget drops a string, typically because it now has problems.
func (lf *LockFile) Forget(block, id string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if ids := lf.Checksums[block]; ids != nil {
		delete(ids, id)
		if len(ids) == 0 {
			delete(lf.Checksums, block)
		}
	}
}

// Clean removes the checksums of a block whose ids are not in currentIDs,
// so stale entries do not accumulate.
func (lf *LockFile) Clean(block string, currentIDs []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[block]
	if existing == nil {
		return
	}

	valid := make(map[string]bool, len(currentIDs))
	for _, id := range currentIDs {
		valid[id] = true
	}

	for id := range existing {
		if !valid[id] {
			delete(existing, id)
		}
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of blocks and total strings in the lock file.
func (lf *LockFile) Stats() (blocks, strs int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	blocks = len(lf.Checksums)
	for _, m := range lf.Checksums {
		strs += len(m)
	}
	return
}

// Blocks returns the sorted list of block keys.
func (lf *LockFile) Blocks() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	blocks := make([]string, 0, len(lf.Checksums))
	for b := range lf.Checksums {
		blocks = append(blocks, b)
	}
	sort.Strings(blocks)
	return blocks
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	blocks, strs := lf.Stats()
	if blocks == 0 {
		return "empty"
	}

	var parts []string
	for _, b := range lf.Blocks() {
		parts = append(parts, fmt.Sprintf("%s: %d strings", b, len(lf.Checksums[b])))
	}
	return fmt.Sprintf("%d blocks, %d clean strings (%s)", blocks, strs, strings.Join(parts, ", "))
}
