package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessToken(t *testing.T) {
	a, err := NewAccessToken()
	require.NoError(t, err)
	b, err := NewAccessToken()
	require.NoError(t, err)

	assert.Len(t, a, 2*TokenBytes)
	assert.NotEqual(t, a, b)
}

func TestGrantSigner_RoundTrip(t *testing.T) {
	s := NewGrantSigner("grant-secret", time.Hour)

	g, err := s.Issue("usage-1", "device-1")
	require.NoError(t, err)
	assert.Equal(t, "device-1", g.DeviceID)

	claims, err := s.Verify(g.Value, "usage-1")
	require.NoError(t, err)
	assert.Equal(t, "device-1", claims.DeviceID)
}

func TestGrantSigner_Rejects(t *testing.T) {
	s := NewGrantSigner("grant-secret", time.Hour)
	g, err := s.Issue("usage-1", "device-1")
	require.NoError(t, err)

	t.Run("other usage", func(t *testing.T) {
		_, err := s.Verify(g.Value, "usage-2")
		assert.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("other secret", func(t *testing.T) {
		_, err := NewGrantSigner("different", time.Hour).Verify(g.Value, "usage-1")
		assert.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewGrantSigner("grant-secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Verify(g.Value, "usage-1")
		assert.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Verify("not-a-jwt", "usage-1")
		assert.ErrorIs(t, err, ErrInvalidGrant)
	})
}

func TestAdminAuthenticator(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	a := NewAdminAuthenticator(hash, "session-secret", time.Hour)

	_, _, err = a.Login("wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tok, exp, err := a.Login("s3cret")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
	assert.NoError(t, a.Validate(tok))

	assert.ErrorIs(t, a.Validate(tok+"x"), ErrInvalidCredentials)

	// a device grant signed with the same secret is not an admin session
	g, err := NewGrantSigner("session-secret", time.Hour).Issue("usage-1", "device-1")
	require.NoError(t, err)
	assert.ErrorIs(t, a.Validate(g.Value), ErrInvalidCredentials)
}

func TestAdminAuthenticator_Unconfigured(t *testing.T) {
	a := NewAdminAuthenticator("", "", time.Hour)
	_, _, err := a.Login("")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
