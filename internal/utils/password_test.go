package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashIsSaltedAndVerifies(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	a, err := h.Hash("pw")
	require.NoError(t, err)
	b, err := h.Hash("pw")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "salt must vary between calls")
	assert.NotContains(t, a, "pw")
	assert.True(t, h.Verify(a, "pw"))
	assert.True(t, h.Verify(b, "pw"))
	assert.False(t, h.Verify(a, "PW"))
	assert.False(t, h.Verify("not-a-hash", "pw"))
}

func TestHashUsesConfiguredCost(t *testing.T) {
	h, err := NewPasswordHasher(5)
	require.NoError(t, err)
	hash, err := h.Hash("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
	assert.Equal(t, 5, h.Cost())
}

func TestNewPasswordHasherRejectsBadCost(t *testing.T) {
	_, err := NewPasswordHasher(2)
	assert.Error(t, err)
	_, err = NewPasswordHasher(40)
	assert.Error(t, err)
}

func TestHashTooLong(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	_, err = h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
