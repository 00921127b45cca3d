package imgcrypt

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHybridV2(t *testing.T, fsys afero.Fs, path string, key []byte) {
	t.Helper()
	plain := make([]byte, 64)
	copy(plain, []byte{0xFF, 0xD8, 0xFF, 0xE0})
	blob, err := EncryptHybrid(plain, FormatHybridV2, key, 0x37)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fsys, path, blob, 0o644))
}

func TestKeyValidator(t *testing.T) {
	key := []byte("0123456789abcdef")
	fsys := afero.NewMemMapFs()
	seedHybridV2(t, fsys, "/attach/u1/abc123_t.dat", key)

	v := NewKeyValidator(fsys, "/attach")
	require.NotNil(t, v)
	assert.Equal(t, "/attach/u1/abc123_t.dat", v.SamplePath())

	assert.True(t, v.Validate(key))
	assert.False(t, v.Validate([]byte("fedcba9876543210")))
	assert.False(t, v.Validate([]byte("short")))
}

func TestKeyValidatorFallsBackToOriginals(t *testing.T) {
	key := []byte("0123456789abcdef")
	fsys := afero.NewMemMapFs()
	// No thumbnails anywhere, only a full-size blob.
	seedHybridV2(t, fsys, "/attach/u1/abc123.dat", key)

	v := NewKeyValidator(fsys, "/attach")
	require.NotNil(t, v)
	assert.Equal(t, "/attach/u1/abc123.dat", v.SamplePath())
	assert.True(t, v.Validate(key))
}

func TestKeyValidatorNoSample(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/attach", 0o755))
	// Legacy blobs carry no signature and cannot serve as samples.
	require.NoError(t, afero.WriteFile(fsys, "/attach/old.dat", []byte{0x12, 0x34}, 0o644))

	assert.Nil(t, NewKeyValidator(fsys, "/attach"))
}
