package resolver

import "errors"

// Sentinel errors surfaced by Resolve. Decrypt-level failures from the
// imgcrypt package pass through wrapped and stay matchable with errors.Is.
var (
	// ErrConfigMissing indicates the account root, output root or XOR key
	// has not been configured. Not retryable until the user fixes config.
	ErrConfigMissing = errors.New("image decryption not configured")
	// ErrNotFound indicates no encrypted source exists for the identifier.
	ErrNotFound = errors.New("image not found")
)
