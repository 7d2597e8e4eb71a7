// Package cryptox implements the symmetric encryption used for article
// content: AES-256 in CBC mode with PKCS#7 padding and a deterministic,
// title-derived initialization vector shared by all fields of one article.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dkolesnik/kbvault/internal/common"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// IVSize is the CBC initialization vector length in bytes.
	IVSize = aes.BlockSize
)

// Cipher encrypts and decrypts article fields under one process-wide key.
// A fresh block mode is created per call, so a single Cipher is safe for
// concurrent use.
type Cipher struct {
	key []byte
}

// NewCipher builds a Cipher from the given key provider.
func NewCipher(p KeyProvider) (*Cipher, error) {
	key, err := p.Key()
	if err != nil {
		return nil, err
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrCrypto, KeySize, len(key))
	}
	return &Cipher{key: key}, nil
}

// Encrypt CBC-encrypts plaintext with the given 16-byte IV. The output is
// padded to a whole number of blocks and carries no authentication tag.
func (c *Cipher) Encrypt(plaintext, iv []byte) ([]byte, error) {
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", common.ErrCrypto, IVSize, len(iv))
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// Decrypt reverses Encrypt. Ciphertext that is not a whole number of blocks
// or that unpads invalidly fails with ErrCrypto. Tampered ciphertext that
// happens to pad validly decrypts to garbage instead of being rejected;
// there is no integrity check over the stored data.
func (c *Cipher) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", common.ErrCrypto, IVSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of the block size", common.ErrCrypto, len(ciphertext))
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out, aes.BlockSize)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, fmt.Errorf("%w: invalid padded length %d", common.ErrCrypto, len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, fmt.Errorf("%w: invalid padding", common.ErrCrypto)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: invalid padding", common.ErrCrypto)
		}
	}
	return b[:len(b)-n], nil
}
