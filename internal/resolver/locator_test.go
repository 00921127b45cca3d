package resolver

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fsys afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, data, 0o644))
}

func TestLocatorOriginalBeatsThumbnail(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/attach/2024-01/foo_b.dat", []byte("thumb"))
	writeFile(t, fsys, "/attach/2024-01/foo.dat", []byte("orig"))
	writeFile(t, fsys, "/attach/2024-02/foo_t.dat", []byte("thumb2"))

	l := NewLocator(fsys, "/attach")
	path, err := l.Find("foo")
	require.NoError(t, err)
	assert.Equal(t, "/attach/2024-01/foo.dat", path)
}

func TestLocatorThumbnailFallback(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/attach/a/bar_b.dat", []byte("b"))
	writeFile(t, fsys, "/attach/b/bar_h.dat", []byte("h"))

	l := NewLocator(fsys, "/attach")
	path, err := l.Find("bar")
	require.NoError(t, err)
	// Any thumbnail is acceptable when no original exists.
	assert.Contains(t, []string{"/attach/a/bar_b.dat", "/attach/b/bar_h.dat"}, path)
}

func TestLocatorMatchesCaseInsensitively(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/attach/ABC123.DAT", []byte("x"))

	l := NewLocator(fsys, "/attach")
	path, err := l.Find("abc123")
	require.NoError(t, err)
	assert.Equal(t, "/attach/ABC123.DAT", path)
}

func TestLocatorNotFound(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/attach/other.dat", []byte("x"))
	writeFile(t, fsys, "/attach/foo.jpg", []byte("not a dat"))

	l := NewLocator(fsys, "/attach")
	_, err := l.Find("foo")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocatorIgnoresUnrelatedSuffixes(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/attach/foo_x.dat", []byte("x"))
	writeFile(t, fsys, "/attach/foobar.dat", []byte("x"))

	l := NewLocator(fsys, "/attach")
	_, err := l.Find("foo")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocatorRelPath(t *testing.T) {
	l := NewLocator(afero.NewMemMapFs(), "/attach")
	assert.Equal(t, "2024-01/foo.dat", l.RelPath("/attach/2024-01/foo.dat"))
}
