package cryptox

import (
	"fmt"

	"github.com/dkolesnik/kbvault/internal/common"
)

// DeriveIV produces the deterministic 16-byte initialization vector for an
// article by cycling the UTF-8 bytes of its title. The same title always
// yields the same IV, and titles whose first 16 cycled bytes coincide share
// an IV; that determinism is part of the stored-data format and must not
// change, or existing ciphertext becomes undecryptable.
func DeriveIV(title string) ([]byte, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: cannot derive an IV from an empty title", common.ErrValidation)
	}
	src := []byte(title)
	iv := make([]byte, IVSize)
	for i := range iv {
		iv[i] = src[i%len(src)]
	}
	return iv, nil
}
