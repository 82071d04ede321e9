package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// AdminAuthenticator exchanges the shared admin password for a token backed
// by a server-side session, so logging out invalidates the token at once.
type AdminAuthenticator struct {
	passwordHash string
	sessions     SessionStore
	ttl          time.Duration
}

func NewAdminAuthenticator(passwordHash string, sessions SessionStore, ttl time.Duration) *AdminAuthenticator {
	return &AdminAuthenticator{
		passwordHash: passwordHash,
		sessions:     sessions,
		ttl:          ttl,
	}
}

func (a *AdminAuthenticator) Login(ctx context.Context, password string) (string, time.Time, error) {
	if err := CheckPassword(a.passwordHash, password); err != nil {
		return "", time.Time{}, err
	}

	id, err := a.sessions.Create(ctx, a.ttl)
	if err != nil {
		return "", time.Time{}, err
	}

	expires := time.Now().Add(a.ttl)
	token, err := GenerateToken(TokenTypeAdmin, id, a.ttl)
	if err != nil {
		_ = a.sessions.Revoke(ctx, id)
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return token, expires, nil
}

// Authorize accepts a valid admin token whose session is still alive.
func (a *AdminAuthenticator) Authorize(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := VerifyToken(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAdmin || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	ok, err := a.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

func (a *AdminAuthenticator) Logout(ctx context.Context, token string) error {
	claims, err := a.Authorize(ctx, token)
	if err != nil {
		return err
	}
	return a.sessions.Revoke(ctx, claims.ID)
}
