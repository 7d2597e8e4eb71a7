package cryptox

import (
	"testing"

	"github.com/dkolesnik/kbvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticKeyProvider_ReturnsKeyAsIs(t *testing.T) {
	key, err := NewStaticKeyProvider(DefaultDevKey).Key()
	require.NoError(t, err)
	assert.Equal(t, DefaultDevKey, key)
	assert.Len(t, key, KeySize)
}

func TestPassphraseKeyProvider_Deterministic(t *testing.T) {
	p := NewPassphraseKeyProvider("correct horse battery staple", "kbvault")

	key1, err := p.Key()
	require.NoError(t, err)
	key2, err := p.Key()
	require.NoError(t, err)

	assert.Equal(t, key1, key2)
	assert.Len(t, key1, KeySize)
}

func TestPassphraseKeyProvider_DifferentSaltsDiffer(t *testing.T) {
	key1, err := NewPassphraseKeyProvider("pass", "salt-1").Key()
	require.NoError(t, err)
	key2, err := NewPassphraseKeyProvider("pass", "salt-2").Key()
	require.NoError(t, err)
	assert.NotEqual(t, key1, key2)
}

func TestPassphraseKeyProvider_RejectsEmptyPassphrase(t *testing.T) {
	_, err := NewPassphraseKeyProvider("", "salt").Key()
	require.ErrorIs(t, err, common.ErrValidation)
}
