package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestSessionProvider_GuestModeByDefault(t *testing.T) {
	p := NewSessionProvider()
	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.False(t, p.HasSession())
}

func TestSessionProvider_ReturnsLiveToken(t *testing.T) {
	p := NewSessionProvider()
	raw := signedToken(t, time.Now().Add(time.Hour))
	p.SetToken(raw)

	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, raw, tok)
	assert.True(t, p.HasSession())
}

func TestSessionProvider_ExpiredTokenFallsBackToGuest(t *testing.T) {
	p := NewSessionProvider()
	p.SetToken(signedToken(t, time.Now().Add(time.Hour)))
	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok, "expired sessions degrade to guest mode")
}

func TestSessionProvider_OpaqueTokenKept(t *testing.T) {
	p := NewSessionProvider()
	p.SetToken("not-a-jwt")

	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "not-a-jwt", tok, "opaque tokens have no local expiry")
}

func TestSessionProvider_ClearSession(t *testing.T) {
	p := NewSessionProvider()
	p.SetToken(signedToken(t, time.Now().Add(time.Hour)))
	p.SetToken("")
	assert.False(t, p.HasSession())
}
