package imgcrypt

import (
	"crypto/aes"
	"encoding/binary"
	"fmt"
)

// Hybrid blob layout:
//
//	[0,6)   signature
//	[6,10)  little-endian uint32: unpadded length of the AES protected plaintext
//	[10,14) little-endian uint32: length of the XOR protected tail
//	[14,15) reserved
//	[15,..) AES region ++ raw region ++ XOR region
const headerLen = 15

// Decrypt classifies the blob and routes it to the right algorithm. A nil
// or short aesKey is fine for legacy and hybrid-v1 blobs; hybrid-v2 blobs
// fail with ErrKeyRequired without one.
func Decrypt(data []byte, aesKey []byte, xorKey byte) ([]byte, error) {
	switch DetectFormat(data) {
	case FormatHybridV1:
		if len(aesKey) != aesKeyLen {
			aesKey = fallbackAESKey
		}
		return DecryptHybrid(data, aesKey, xorKey)
	case FormatHybridV2:
		if len(aesKey) != aesKeyLen {
			return nil, fmt.Errorf("%w: blob is hybrid-v2", ErrKeyRequired)
		}
		return DecryptHybrid(data, aesKey, xorKey)
	default:
		return DecryptLegacy(data, xorKey), nil
	}
}

// DecryptLegacy XORs every byte against the key. The transform is its own
// inverse, so the same function encrypts.
func DecryptLegacy(data []byte, key byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key
	}
	return out
}

// DecryptHybrid decrypts a hybrid-format blob: AES-ECB over the padded
// leading region, the middle region copied through untouched, and the tail
// XOR decrypted. The three regions are rejoined in order.
func DecryptHybrid(data []byte, aesKey []byte, xorKey byte) ([]byte, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformedInput, len(data))
	}
	aesSize := int(binary.LittleEndian.Uint32(data[6:10]))
	xorSize := int(binary.LittleEndian.Uint32(data[10:14]))
	body := data[headerLen:]

	// The writer always emits a non-empty PKCS7 block, so the region length
	// adds a full block even when aesSize is already 16-aligned.
	aesRegionLen := (aesSize/aes.BlockSize)*aes.BlockSize + aes.BlockSize
	if aesRegionLen > len(body) {
		return nil, fmt.Errorf("%w: aes region %d exceeds body %d", ErrMalformedInput, aesRegionLen, len(body))
	}

	plain, err := decryptECB(body[:aesRegionLen], aesKey)
	if err != nil {
		return nil, err
	}
	plain, err = stripPKCS7(plain)
	if err != nil {
		return nil, err
	}

	remaining := body[aesRegionLen:]
	rawLen := len(remaining) - xorSize
	if rawLen < 0 {
		return nil, fmt.Errorf("%w: xor region %d exceeds remaining %d", ErrMalformedInput, xorSize, len(remaining))
	}

	out := make([]byte, 0, len(plain)+len(remaining))
	out = append(out, plain...)
	out = append(out, remaining[:rawLen]...)
	for _, b := range remaining[rawLen:] {
		out = append(out, b^xorKey)
	}
	return out, nil
}

func decryptECB(data, key []byte) ([]byte, error) {
	if len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: aes region is not block aligned", ErrMalformedInput)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += aes.BlockSize {
		block.Decrypt(out[i:i+aes.BlockSize], data[i:i+aes.BlockSize])
	}
	return out, nil
}

// stripPKCS7 validates and removes PKCS7 padding. Validation is strict: a
// bad pad byte means a wrong key or corrupted data and is never coerced.
func stripPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrPaddingInvalid)
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, fmt.Errorf("%w: pad length %d", ErrPaddingInvalid, pad)
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("%w: inconsistent pad bytes", ErrPaddingInvalid)
		}
	}
	return data[:len(data)-pad], nil
}
