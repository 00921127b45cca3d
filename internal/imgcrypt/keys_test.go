package imgcrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseXORKey(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    byte
		wantErr bool
	}{
		{"prefixed upper", "0x4A", 0x4A, false},
		{"bare lower", "4a", 0x4A, false},
		{"uppercase prefix", "0X37", 0x37, false},
		{"extra characters ignored", "37ffff", 0x37, false},
		{"surrounding whitespace", " 0x37 ", 0x37, false},
		{"empty", "", 0, true},
		{"prefix only", "0x", 0, true},
		{"single digit", "7", 0, true},
		{"not hex", "zz", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseXORKey(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAESKey(t *testing.T) {
	t.Run("exact length", func(t *testing.T) {
		key, err := ParseAESKey("0123456789abcdef")
		require.NoError(t, err)
		assert.Equal(t, []byte("0123456789abcdef"), key)
	})

	t.Run("longer key uses first 16 characters", func(t *testing.T) {
		key, err := ParseAESKey("0123456789abcdefEXTRA")
		require.NoError(t, err)
		assert.Equal(t, []byte("0123456789abcdef"), key)
	})

	t.Run("whitespace trimmed before length check", func(t *testing.T) {
		key, err := ParseAESKey("  0123456789abcdef\n")
		require.NoError(t, err)
		assert.Equal(t, []byte("0123456789abcdef"), key)
	})

	t.Run("short key rejected", func(t *testing.T) {
		_, err := ParseAESKey("tooshort")
		require.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("empty rejected", func(t *testing.T) {
		_, err := ParseAESKey("")
		require.ErrorIs(t, err, ErrInvalidKey)
	})
}
