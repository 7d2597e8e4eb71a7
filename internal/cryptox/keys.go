package cryptox

import (
	"fmt"

	"github.com/dkolesnik/kbvault/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeyProvider supplies the symmetric key material for the article cipher.
// Keeping the key behind an interface lets production load it from a
// secrets store while tests inject a fixed key. There is no rotation or
// per-record key story; one key covers all data ever written.
type KeyProvider interface {
	Key() ([]byte, error)
}

// DefaultDevKey is the fixed development key. It reproduces the historical
// embedded-key behavior and must not be used outside development.
var DefaultDevKey = []byte("kbvault-dev-32-byte-static-key!!")

// StaticKeyProvider returns a fixed key.
type StaticKeyProvider struct {
	key []byte
}

func NewStaticKeyProvider(key []byte) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

func (p *StaticKeyProvider) Key() ([]byte, error) {
	return p.key, nil
}

// PassphraseKeyProvider derives the key from a passphrase and salt with
// argon2id (t=1, m=64MiB, p=4). The derivation is deterministic so the
// same configuration always opens the same data.
type PassphraseKeyProvider struct {
	passphrase []byte
	salt       []byte
}

func NewPassphraseKeyProvider(passphrase, salt string) *PassphraseKeyProvider {
	return &PassphraseKeyProvider{passphrase: []byte(passphrase), salt: []byte(salt)}
}

func (p *PassphraseKeyProvider) Key() ([]byte, error) {
	if len(p.passphrase) == 0 {
		return nil, fmt.Errorf("%w: empty encryption passphrase", common.ErrValidation)
	}
	return argon2.IDKey(p.passphrase, p.salt, 1, 64*1024, 4, KeySize), nil
}
