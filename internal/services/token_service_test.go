package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)

	raw, err := tokens.Issue("user-1")
	require.NoError(t, err)

	userID, err := tokens.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestTokenService_Expired(t *testing.T) {
	tokens := NewTokenService("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	raw, err := tokens.Issue("user-1")
	require.NoError(t, err)

	_, err = tokens.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	raw, err := NewTokenService("secret", time.Hour).Issue("user-1")
	require.NoError(t, err)

	_, err = NewTokenService("other", time.Hour).Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}
