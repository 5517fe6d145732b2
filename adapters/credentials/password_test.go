package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("password")
	require.NoError(t, err)
	assert.NotEqual(t, "password", hash)

	ok, err := h.Compare(hash, "password")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(hash, "Password")
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := h.Hash("password")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes must be salted")
}

func TestBcryptHasher_NotAHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	ok, err := h.Compare("password", "password")
	assert.Error(t, err, "a plaintext verifier must never match")
	assert.False(t, ok)
}

func TestNewBcryptHasher_DefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}
