package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientFundsError_MatchesSentinel(t *testing.T) {
	var err error = &InsufficientFundsError{
		ShortfallMinutes: 12,
		ShortfallMinor:   120,
		Currency:         "USD",
	}

	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.False(t, errors.Is(err, ErrInvalidInput))

	wrapped := fmt.Errorf("reserve: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInsufficientFunds))

	var details *InsufficientFundsError
	require.True(t, errors.As(wrapped, &details))
	assert.Equal(t, int64(12), details.ShortfallMinutes)
}

func TestHashingRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.NoError(t, ComparePasswords(hash, "correct horse battery staple"))
	assert.Error(t, ComparePasswords(hash, "wrong password"))
}

func TestGenerateSecureToken(t *testing.T) {
	tok, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, tok, 64) // hex doubles the byte count

	other, _ := GenerateSecureToken(32)
	assert.NotEqual(t, tok, other)

	_, err = GenerateSecureToken(0)
	assert.Error(t, err)
}
