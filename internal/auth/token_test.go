package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.Generate(&models.User{ID: 42, Email: "a@b.test"})
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "a@b.test", claims.Email)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	foreign, err := other.Generate(&models.User{ID: 1})
	require.NoError(t, err)

	expired := NewTokenManager("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := expired.Generate(&models.User{ID: 1})
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JwtCustomClaims{UserID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrInvalidToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"wrong secret", foreign, ErrInvalidToken},
		{"alg none", unsigned, ErrInvalidToken},
		{"expired", stale, ErrExpiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Parse(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
