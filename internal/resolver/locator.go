// Package resolver maps logical image identifiers from chat records to
// decrypted image files on disk, locating and decrypting the encrypted
// source blob on first use and serving cached results afterwards.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// errStopWalk short-circuits a walk once the best possible match is found.
var errStopWalk = errors.New("stop walk")

// datExt is the extension of encrypted source files.
const datExt = ".dat"

// sourceSuffixes are the thumbnail variants an identifier may be stored
// under. The set is observed from real exports, not documented; extend it
// if new suffixes show up in the wild.
var sourceSuffixes = []string{"_b", "_h", "_t"}

// Locator finds the encrypted .dat file for an identifier inside an
// account's attachment tree.
type Locator struct {
	fs   afero.Fs
	root string
}

// NewLocator creates a Locator over the given account root.
func NewLocator(fsys afero.Fs, root string) *Locator {
	return &Locator{fs: fsys, root: root}
}

// Find walks the account tree for a file matching the identifier. An
// original {id}.dat wins immediately over any thumbnail; among thumbnails
// the last one found is returned. Unreadable subdirectories are skipped.
func (l *Locator) Find(id string) (string, error) {
	id = strings.ToLower(id)
	var original, thumbnail string

	err := afero.Walk(l.fs, l.root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		name := strings.ToLower(info.Name())
		if !strings.HasSuffix(name, datExt) {
			return nil
		}
		base := strings.TrimSuffix(name, datExt)
		if base == id {
			original = path
			return errStopWalk
		}
		for _, suffix := range sourceSuffixes {
			if base == id+suffix {
				thumbnail = path
				break
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return "", fmt.Errorf("walking %s: %w", l.root, err)
	}

	if original != "" {
		return original, nil
	}
	if thumbnail != "" {
		return thumbnail, nil
	}
	return "", fmt.Errorf("%w: no source for %q under %s", ErrNotFound, id, l.root)
}

// RelPath returns a file's path relative to the account root, used to
// mirror the source layout under the output root.
func (l *Locator) RelPath(path string) string {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return rel
}
