package session

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/tournament-calendar/config"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return token
}

func TestAnonymousSessionHasNoToken(t *testing.T) {
	s := Anonymous()
	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.UserID())
}

func TestSignInReadsUserID(t *testing.T) {
	s := Anonymous()
	token := signed(t, jwt.MapClaims{"user_id": "abc123"})

	require.NoError(t, s.SignIn(token))
	assert.Equal(t, "abc123", s.UserID())

	got, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, got)

	s.SignOut()
	got, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, s.UserID())
}

func TestSignInRejectsGarbage(t *testing.T) {
	s := Anonymous()
	assert.Error(t, s.SignIn("not-a-jwt"))
	assert.False(t, s.Authenticated())
}

func TestIdentityHooksFireOnUserChange(t *testing.T) {
	s := Anonymous()
	var fired int
	stop := s.OnIdentityChange(func() { fired++ })

	require.NoError(t, s.SignIn(signed(t, jwt.MapClaims{"user_id": "u-1"})))
	assert.Equal(t, 1, fired)

	// refreshed token for the same user
	require.NoError(t, s.SignIn(signed(t, jwt.MapClaims{"user_id": "u-1", "iat": 42})))
	assert.Equal(t, 1, fired)

	require.NoError(t, s.SignIn(signed(t, jwt.MapClaims{"user_id": "u-2"})))
	assert.Equal(t, 2, fired)

	s.SignOut()
	assert.Equal(t, 3, fired)
	s.SignOut()
	assert.Equal(t, 3, fired)

	stop()
	require.NoError(t, s.SignIn(signed(t, jwt.MapClaims{"user_id": "u-3"})))
	assert.Equal(t, 3, fired)
}

func TestUserIDFromClaims(t *testing.T) {
	id, err := userIDFromClaims(jwt.MapClaims{"sub": "firebase-uid"})
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid", id)

	id, err = userIDFromClaims(jwt.MapClaims{"user_id": float64(42)})
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	_, err = userIDFromClaims(jwt.MapClaims{"user_id": 4.5})
	assert.Error(t, err)

	_, err = userIDFromClaims(jwt.MapClaims{})
	assert.ErrorIs(t, err, ErrNoUserClaim)
}

func TestMintedTokensAreReusedUntilNearExpiry(t *testing.T) {
	s, err := New(config.SessionConfig{JWTSecret: "secret", UserID: "u-1", TokenTTL: 10 * time.Minute})
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	first, err := s.Token(context.Background())
	require.NoError(t, err)
	id, err := UserIDFromToken(first)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)

	now = now.Add(5 * time.Minute)
	second, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	now = now.Add(5 * time.Minute)
	third, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestTheme(t *testing.T) {
	theme := NewTheme(false)
	assert.True(t, theme.Toggle())
	assert.True(t, theme.Dark())
	theme.Set(false)
	assert.False(t, theme.Dark())
}
