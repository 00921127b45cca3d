// Package imgcrypt implements the encrypted image blob format used by the
// chat export: a 6-byte signature header, an AES-ECB protected leading
// region, an untouched middle region and an XOR protected tail. Blobs
// without a recognized signature are single-pass XOR encrypted.
package imgcrypt

import "bytes"

// FormatVersion identifies the encryption scheme of a .dat blob.
type FormatVersion int

const (
	// FormatLegacy is the headerless single-pass XOR scheme.
	FormatLegacy FormatVersion = iota
	// FormatHybridV1 is the AES+XOR scheme using the built-in image key.
	FormatHybridV1
	// FormatHybridV2 is the AES+XOR scheme requiring a per-account image key.
	FormatHybridV2
)

func (v FormatVersion) String() string {
	switch v {
	case FormatHybridV1:
		return "hybrid-v1"
	case FormatHybridV2:
		return "hybrid-v2"
	default:
		return "legacy"
	}
}

// signatureLen is the length of the hybrid format signature prefix.
const signatureLen = 6

var (
	signatureV1 = []byte{0x07, 0x08, 0x56, 0x31, 0x08, 0x07}
	signatureV2 = []byte{0x07, 0x08, 0x56, 0x32, 0x08, 0x07}
)

// DetectFormat classifies a blob by its leading bytes. Blobs shorter than
// the signature are legacy; classification never depends on anything past
// the first 6 bytes.
func DetectFormat(data []byte) FormatVersion {
	if len(data) < signatureLen {
		return FormatLegacy
	}
	switch {
	case bytes.Equal(data[:signatureLen], signatureV1):
		return FormatHybridV1
	case bytes.Equal(data[:signatureLen], signatureV2):
		return FormatHybridV2
	default:
		return FormatLegacy
	}
}

var imageMagics = []struct {
	prefix []byte
	ext    string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "jpg"},
	{[]byte{0x89, 0x50, 0x4E, 0x47}, "png"},
	{[]byte{0x47, 0x49, 0x46, 0x38}, "gif"},
	{[]byte{0x49, 0x49, 0x2A, 0x00}, "tiff"},
	{[]byte{0x42, 0x4D}, "bmp"},
	{[]byte("wxgf"), "wxgf"},
}

// SniffImageExt returns the image extension matching the plaintext's magic
// bytes, or "" if no known signature matches.
func SniffImageExt(data []byte) string {
	for _, m := range imageMagics {
		if bytes.HasPrefix(data, m.prefix) {
			return m.ext
		}
	}
	return ""
}
