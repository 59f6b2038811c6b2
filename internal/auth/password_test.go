package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	require.True(t, CheckPasswordHash("correct horse battery staple", hash))
	require.False(t, CheckPasswordHash("wrong password", hash))
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("same password")
	require.NoError(t, err)
	second, err := HashPassword("same password")
	require.NoError(t, err)

	// A fresh random salt per hash means identical passwords never collide.
	require.NotEqual(t, first, second)
	require.True(t, CheckPasswordHash("same password", first))
	require.True(t, CheckPasswordHash("same password", second))
}

func TestCheckPasswordHashRejectsMalformedInput(t *testing.T) {
	// A broken stored hash is a failed login, never a panic or an error the
	// caller has to distinguish.
	require.False(t, CheckPasswordHash("anything", ""))
	require.False(t, CheckPasswordHash("anything", "not-a-hash"))
	require.False(t, CheckPasswordHash("anything", "$argon2id$v=19$garbage"))
}
