package cryptox

import (
	"testing"

	"github.com/dkolesnik/kbvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveIV_Deterministic(t *testing.T) {
	iv1, err := DeriveIV("Sample Title")
	require.NoError(t, err)
	iv2, err := DeriveIV("Sample Title")
	require.NoError(t, err)

	assert.Equal(t, iv1, iv2)
	assert.Len(t, iv1, IVSize)
}

func TestDeriveIV_CyclesShortTitles(t *testing.T) {
	iv, err := DeriveIV("ab")
	require.NoError(t, err)
	assert.Equal(t, []byte("abababababababab"), iv)

	iv, err = DeriveIV("abcde")
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdeabcdeabcdea"), iv)
}

func TestDeriveIV_TruncatesLongTitles(t *testing.T) {
	iv, err := DeriveIV("0123456789abcdefGHIJKLMNOP")
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef"), iv)
}

// Titles sharing their first 16 bytes share an IV. That weakness is part of
// the stored-data format and is intentionally preserved.
func TestDeriveIV_SharedPrefixSharesIV(t *testing.T) {
	iv1, err := DeriveIV("0123456789abcdef -- first")
	require.NoError(t, err)
	iv2, err := DeriveIV("0123456789abcdef -- second")
	require.NoError(t, err)
	assert.Equal(t, iv1, iv2)
}

func TestDeriveIV_RejectsEmptyTitle(t *testing.T) {
	_, err := DeriveIV("")
	require.ErrorIs(t, err, common.ErrValidation)
}
