package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)

	assert.True(t, VerifyPassword(hash, "Secret123"))
	assert.False(t, VerifyPassword(hash, "secret123"))
	assert.False(t, VerifyPassword("", "Secret123"))
}

func TestHashPassword_OutOfRangeCostUsesDefault(t *testing.T) {
	hash, err := HashPassword("pw", 99)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestBurnPasswordCheck_DoesNotPanic(t *testing.T) {
	BurnPasswordCheck("anything")
	BurnPasswordCheck("")
}
