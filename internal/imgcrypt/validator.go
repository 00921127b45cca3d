package imgcrypt

import (
	"crypto/aes"
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
)

// errSampleFound stops the walk once a usable sample block is captured.
var errSampleFound = errors.New("sample found")

// KeyValidator checks a candidate image key against a sample block taken
// from the account's own encrypted files, so a misconfigured key is caught
// before any bulk work. Thumbnails are preferred as samples because they
// are always hybrid encrypted.
type KeyValidator struct {
	sample []byte
	path   string
}

// NewKeyValidator walks the account root looking for a hybrid-v2 blob and
// keeps its first AES block. Returns nil if no usable sample exists, which
// means validation cannot be offered for this account.
func NewKeyValidator(fsys afero.Fs, root string) *KeyValidator {
	v := &KeyValidator{}
	find := func(thumbsOnly bool) {
		_ = afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
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
			if !strings.HasSuffix(name, ".dat") {
				return nil
			}
			if thumbsOnly != strings.HasSuffix(name, "_t.dat") {
				return nil
			}
			data, err := afero.ReadFile(fsys, path)
			if err != nil || len(data) < headerLen+aes.BlockSize {
				return nil
			}
			if DetectFormat(data) != FormatHybridV2 {
				return nil
			}
			v.sample = append([]byte(nil), data[headerLen:headerLen+aes.BlockSize]...)
			v.path = path
			return errSampleFound
		})
	}
	find(true)
	if v.sample == nil {
		find(false)
	}
	if v.sample == nil {
		return nil
	}
	return v
}

// SamplePath reports which file the validation sample came from.
func (v *KeyValidator) SamplePath() string { return v.path }

// Validate decrypts the sample block with the candidate key and checks the
// result for a known image signature.
func (v *KeyValidator) Validate(key []byte) bool {
	if len(key) < aesKeyLen {
		return false
	}
	block, err := aes.NewCipher(key[:aesKeyLen])
	if err != nil {
		return false
	}
	plain := make([]byte, len(v.sample))
	block.Decrypt(plain, v.sample)
	ext := SniffImageExt(plain)
	return ext == "jpg" || ext == "wxgf"
}
