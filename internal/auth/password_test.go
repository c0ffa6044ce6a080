package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hash)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, ComparePassword(hash, "correct horse battery"))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.Error(t, ComparePassword(hash, "correct horse staple"))
	})

	t.Run("hashes are salted", func(t *testing.T) {
		other, err := HashPassword("correct horse battery")
		require.NoError(t, err)
		assert.NotEqual(t, hash, other)
	})
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = HashPassword(strings.Repeat("a", 72))
	assert.NoError(t, err)
}
