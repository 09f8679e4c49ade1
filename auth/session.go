// Package auth supplies bearer tokens to the remote gateway. The core
// treats the absence of a token as guest mode, never as an error; real
// session acquisition (OAuth, refresh) lives in the embedding application.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaticToken always returns the same token. Empty means guest mode.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// SessionProvider holds the current bearer token and drops it locally once
// its JWT exp claim has passed, so the gateway falls back to guest mode
// instead of sending a token the backend will reject.
//
// The token is parsed without signature verification: the client has no
// signing key, and only the expiry claim is of interest.
type SessionProvider struct {
	mu    sync.Mutex
	token string
	exp   time.Time

	now func() time.Time
}

func NewSessionProvider() *SessionProvider {
	return &SessionProvider{now: time.Now}
}

// SetToken installs a new bearer token, or clears the session when t is
// empty.
func (p *SessionProvider) SetToken(t string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.token = t
	p.exp = time.Time{}
	if t == "" {
		return
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t, claims); err != nil {
		return // opaque token, no local expiry knowledge
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		p.exp = exp.Time
	}
}

// Token returns the current bearer token, or "" when there is no session
// or the session has expired.
func (p *SessionProvider) Token(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token == "" {
		return "", nil
	}
	if !p.exp.IsZero() && p.now().After(p.exp) {
		p.token = ""
		return "", nil
	}
	return p.token, nil
}

// HasSession reports whether a usable token is currently held.
func (p *SessionProvider) HasSession() bool {
	t, _ := p.Token(context.Background())
	return t != ""
}
