package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	secret := []byte("access-secret")
	userID := uuid.NewString()
	exp := time.Now().Add(15 * time.Minute)

	tok, err := SignAccessToken(userID, RoleAdmin, exp, secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	tok, err := SignAccessToken("u", RoleUser, time.Now().Add(time.Minute), []byte("a"))
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, []byte("b"))
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestAccessToken_Expired(t *testing.T) {
	secret := []byte("s")
	tok, err := SignAccessToken("u", RoleUser, time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, secret)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	secret := []byte("refresh-secret")
	tok, jti, err := SignRefreshToken("user-1", time.Now().Add(time.Hour), secret)
	require.NoError(t, err)

	claims, err := RefreshClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, jti, claims.ID)
}

func TestRefreshToken_RejectsOtherAlg(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, RefreshClaims{})
	signed, err := tok.SignedString([]byte("s"))
	require.NoError(t, err)

	_, err = RefreshClaimsFromToken(signed, []byte("s"))
	assert.Error(t, err)
}
