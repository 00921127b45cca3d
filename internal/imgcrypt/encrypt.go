package imgcrypt

import (
	"bytes"
	"crypto/aes"
	"encoding/binary"
	"fmt"
)

// Encryption limits matching what the exporter writes: the leading portion
// of the image goes under AES, a slice at the very end stays XOR-only.
const (
	maxAESPlainLen = 1024
	maxXORTailLen  = 512
)

// EncryptHybrid produces a hybrid-format blob for the given plaintext. The
// signature emitted matches the version: v1 blobs decrypt with the built-in
// key, v2 blobs with the supplied one. Used by the encode CLI mode and to
// build test fixtures.
func EncryptHybrid(plain []byte, version FormatVersion, aesKey []byte, xorKey byte) ([]byte, error) {
	var sig []byte
	switch version {
	case FormatHybridV1:
		sig = signatureV1
		if len(aesKey) != aesKeyLen {
			aesKey = fallbackAESKey
		}
	case FormatHybridV2:
		sig = signatureV2
		if len(aesKey) != aesKeyLen {
			return nil, fmt.Errorf("%w: encrypting hybrid-v2", ErrKeyRequired)
		}
	default:
		return nil, fmt.Errorf("%w: legacy blobs have no hybrid layout", ErrMalformedInput)
	}

	aesPart := plain
	if len(aesPart) > maxAESPlainLen {
		aesPart = aesPart[:maxAESPlainLen]
	}
	mid := plain[len(aesPart):]
	var tail []byte
	if len(mid) > maxXORTailLen {
		tail = mid[len(mid)-maxXORTailLen:]
		mid = mid[:len(mid)-maxXORTailLen]
	}

	enc, err := encryptECB(padPKCS7(aesPart), aesKey)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerLen+len(enc)+len(mid)+len(tail)))
	buf.Write(sig)
	var sizes [8]byte
	binary.LittleEndian.PutUint32(sizes[0:4], uint32(len(aesPart)))
	binary.LittleEndian.PutUint32(sizes[4:8], uint32(len(tail)))
	buf.Write(sizes[:])
	buf.WriteByte(0x01)
	buf.Write(enc)
	buf.Write(mid)
	for _, b := range tail {
		buf.WriteByte(b ^ xorKey)
	}
	return buf.Bytes(), nil
}

func encryptECB(data, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], data[i:i+aes.BlockSize])
	}
	return out, nil
}

// padPKCS7 always appends a non-empty pad: block-aligned input gains a
// whole padding block. DecryptHybrid's region arithmetic relies on this.
func padPKCS7(data []byte) []byte {
	pad := aes.BlockSize - len(data)%aes.BlockSize
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(pad)}, pad)...)
}
