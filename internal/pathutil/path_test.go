package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDirectoryWritable(t *testing.T) {
	t.Run("existing directory", func(t *testing.T) {
		require.NoError(t, CheckDirectoryWritable(t.TempDir()))
	})

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b")
		require.NoError(t, CheckDirectoryWritable(dir))
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty path", func(t *testing.T) {
		require.Error(t, CheckDirectoryWritable(""))
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "f")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		err := CheckDirectoryWritable(file)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})
}

func TestCheckFileDirectoryWritable(t *testing.T) {
	assert.NoError(t, CheckFileDirectoryWritable("", "log"))
	assert.NoError(t, CheckFileDirectoryWritable(filepath.Join(t.TempDir(), "app.log"), "log"))
}
