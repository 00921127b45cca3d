package resolver

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexThumbnailAlias(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/out/u1/abc123_b.jpg", []byte("img"))

	idx := NewIndex(fsys, "/out")

	path, ok := idx.Lookup("abc123_b", false)
	require.True(t, ok)
	assert.Equal(t, "/out/u1/abc123_b.jpg", path)

	// The suffix-stripped key resolves to the same file.
	path, ok = idx.Lookup("abc123", false)
	require.True(t, ok)
	assert.Equal(t, "/out/u1/abc123_b.jpg", path)
}

func TestIndexLazyBuildAndRefresh(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/out/one.jpg", []byte("1"))

	idx := NewIndex(fsys, "/out")

	_, ok := idx.Lookup("one", false)
	require.True(t, ok)

	// A file written after the build is invisible until a refresh.
	writeFile(t, fsys, "/out/two.jpg", []byte("2"))
	_, ok = idx.Lookup("two", false)
	assert.False(t, ok)

	_, ok = idx.Lookup("two", true)
	assert.True(t, ok)
}

func TestIndexRefreshDiscardsStaleEntries(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/out/gone.jpg", []byte("x"))

	idx := NewIndex(fsys, "/out")
	_, ok := idx.Lookup("gone", false)
	require.True(t, ok)

	require.NoError(t, fsys.Remove("/out/gone.jpg"))
	require.NoError(t, idx.Refresh())

	_, ok = idx.Lookup("gone", false)
	assert.False(t, ok)
	assert.Zero(t, idx.Len())
}

func TestIndexLowercasesKeys(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/out/ABC123.JPG", []byte("x"))

	idx := NewIndex(fsys, "/out")
	path, ok := idx.Lookup("abc123", false)
	require.True(t, ok)
	assert.Equal(t, "/out/ABC123.JPG", path)
}

func TestIndexMissingRoot(t *testing.T) {
	idx := NewIndex(afero.NewMemMapFs(), "/does/not/exist")
	_, ok := idx.Lookup("anything", false)
	assert.False(t, ok)
}
