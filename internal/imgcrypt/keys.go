package imgcrypt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors returned by this package. Callers match with errors.Is.
var (
	// ErrInvalidKey indicates a key string that cannot be parsed.
	ErrInvalidKey = errors.New("invalid key")
	// ErrKeyRequired indicates a hybrid-v2 blob with no image key supplied.
	ErrKeyRequired = errors.New("image key required")
	// ErrMalformedInput indicates header sizes inconsistent with the blob length.
	ErrMalformedInput = errors.New("malformed blob")
	// ErrPaddingInvalid indicates the decrypted AES region fails PKCS7 validation,
	// which usually means a wrong key or a corrupted source file.
	ErrPaddingInvalid = errors.New("invalid padding")
)

// fallbackAESKey is the publicly known image key used by hybrid-v1 blobs.
var fallbackAESKey = []byte("cfcd208495d565ef")

// aesKeyLen is the image key length in bytes (AES-128).
const aesKeyLen = 16

// ParseXORKey parses a hex key string ("0x37", "37", "4A"...) into the
// single XOR key byte. Only the first two hex characters are significant.
func ParseXORKey(s string) (byte, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: xor key %q too short", ErrInvalidKey, s)
	}
	v, err := strconv.ParseUint(s[:2], 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: xor key %q is not hex", ErrInvalidKey, s)
	}
	return byte(v), nil
}

// ParseAESKey converts an image key string into the 16-byte AES key. The
// exported key format is byte-per-character, not hex: the key bytes are the
// ASCII values of the first 16 characters. Shorter strings are rejected
// rather than padded.
func ParseAESKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) < aesKeyLen {
		return nil, fmt.Errorf("%w: image key must be at least %d characters", ErrInvalidKey, aesKeyLen)
	}
	return []byte(s[:aesKeyLen]), nil
}
