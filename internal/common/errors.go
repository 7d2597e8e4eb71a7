// Package common defines the sentinel errors shared across the
// knowledge-base core. Callers should match them with errors.Is; layers
// wrap them with context via fmt.Errorf and %w.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Crypto errors: bad key or IV length, non-block-aligned ciphertext,
	// padding failure on decrypt. A padding failure usually means corrupted
	// ciphertext or the wrong IV; there is no authentication tag, so
	// tampering that pads validly is not detected here.
	ErrCrypto = errors.New("crypto error")

	// Validation errors: malformed backup files, empty titles, unknown
	// difficulty levels and similar caller mistakes.
	ErrValidation = errors.New("validation error")

	// Access-control errors. LastAdmin and DuplicateName are expected,
	// recoverable conditions to be shown to the end user.
	ErrDuplicateName = errors.New("name already exists")
	ErrLastAdmin     = errors.New("cannot remove the last admin of a group")
	ErrUnauthorized  = errors.New("unauthorized")
)
