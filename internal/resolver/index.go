package resolver

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// outputSuffixes are the thumbnail suffixes aliased in the decrypted
// output index: a request for the canonical id must resolve even when only
// a thumbnail variant was ever decrypted.
var outputSuffixes = []string{"_b", "_c"}

// Index maps logical identifiers to decrypted files under the output root.
// It is rebuilt wholesale from a directory walk; a rebuild discards the
// previous mapping so stale or renamed files never linger. Rebuilds are
// idempotent functions of on-disk state, so concurrent rebuilds are
// harmless last-write-wins.
type Index struct {
	fs   afero.Fs
	root string

	mu      sync.RWMutex
	entries map[string]string
	built   bool
}

// NewIndex creates an Index over the decrypted output root. The first
// Lookup triggers the initial build.
func NewIndex(fsys afero.Fs, root string) *Index {
	return &Index{fs: fsys, root: root}
}

// Lookup resolves an identifier to a decrypted file path. With
// forceRefresh the index is rebuilt first, which callers signal after any
// operation that may have produced new output files.
func (x *Index) Lookup(id string, forceRefresh bool) (string, bool) {
	x.mu.RLock()
	built := x.built
	x.mu.RUnlock()

	if forceRefresh || !built {
		if err := x.Refresh(); err != nil {
			return "", false
		}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	path, ok := x.entries[strings.ToLower(id)]
	return path, ok
}

// Refresh rebuilds the index from a full walk of the output root. Only
// files that exist at walk time are indexed.
func (x *Index) Refresh() error {
	entries := make(map[string]string)

	err := afero.Walk(x.fs, x.root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		base := strings.ToLower(strings.TrimSuffix(info.Name(), filepath.Ext(info.Name())))
		if base == "" {
			return nil
		}
		entries[base] = path
		for _, suffix := range outputSuffixes {
			if stripped := strings.TrimSuffix(base, suffix); stripped != base && stripped != "" {
				entries[stripped] = path
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("indexing %s: %w", x.root, err)
	}

	x.mu.Lock()
	x.entries = entries
	x.built = true
	x.mu.Unlock()
	return nil
}

// Len reports the number of indexed keys, aliases included.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}
