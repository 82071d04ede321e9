package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "token-test-secret"

func withSecret(t *testing.T, secret string) {
	t.Helper()
	prev := TokenSecretKey
	TokenSecretKey = secret
	t.Cleanup(func() { TokenSecretKey = prev })
}

func TestGenerateToken_RoundTrip(t *testing.T) {
	withSecret(t, testSecretKey)

	for _, ttl := range []time.Duration{30 * time.Minute, 8 * time.Hour} {
		t.Run(ttl.String(), func(t *testing.T) {
			token, err := GenerateToken(TokenTypeAdmin, "session-1", ttl)
			require.NoError(t, err)

			claims, err := VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, TokenTypeAdmin, claims.Type)
			assert.Equal(t, "session-1", claims.ID, "the session id travels in jti")
			assert.WithinDuration(t, time.Now().Add(ttl), claims.ExpiresAt.Time, 5*time.Second)
		})
	}
}

func TestVerifyToken_Rejects(t *testing.T) {
	withSecret(t, testSecretKey)

	expired, err := GenerateToken(TokenTypeAdmin, "s1", -time.Hour)
	require.NoError(t, err)

	otherSecret := func() string {
		TokenSecretKey = "another-secret"
		defer func() { TokenSecretKey = testSecretKey }()
		token, err := GenerateToken(TokenTypeAdmin, "s1", time.Hour)
		require.NoError(t, err)
		return token
	}()

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, TokenClaims{
		Type: TokenTypeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "s1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "expired", token: expired, wantErr: jwt.ErrTokenExpired},
		{name: "signed with another secret", token: otherSecret, wantErr: jwt.ErrTokenSignatureInvalid},
		{name: "malformed", token: "not-a-jwt", wantErr: jwt.ErrTokenMalformed},
		{name: "alg none", token: unsigned, wantErr: ErrInvalidSigningMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := VerifyToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}
