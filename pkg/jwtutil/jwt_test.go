package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUtil() *JWTUtil {
	return NewJWTUtil(&JWTConfig{SigningKey: "test-key", ExpirationHours: 2})
}

func TestGenerateAndValidate(t *testing.T) {
	j := newTestUtil()

	token, expiresAt, err := j.GenerateToken("sess-1", 42, "ana@example.com", false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), expiresAt, time.Minute)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "sess-1", claims.SessionID())
	assert.False(t, claims.Remember)
}

func TestGenerateToken_CarriesNoCompany(t *testing.T) {
	token, _, err := newTestUtil().GenerateToken("sess-1", 42, "ana@example.com", true)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	// the current company lives on the user row and changes on switch
	assert.NotContains(t, claims, "tenant_id")
	assert.Equal(t, "sess-1", claims["jti"])
	assert.Equal(t, true, claims["remember"])
}

func TestLifetime_Remember(t *testing.T) {
	j := newTestUtil()
	assert.Equal(t, 2*time.Hour, j.Lifetime(false))
	assert.Greater(t, j.Lifetime(true), 30*24*time.Hour)
}

func TestValidateToken_WrongKey(t *testing.T) {
	token, _, err := newTestUtil().GenerateToken("sess-1", 1, "a@b.c", false)
	require.NoError(t, err)

	other := NewJWTUtil(&JWTConfig{SigningKey: "other-key", ExpirationHours: 2})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	j := newTestUtil()
	j.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }

	token, _, err := j.GenerateToken("sess-1", 1, "a@b.c", false)
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_MissingSession(t *testing.T) {
	claims := UserClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)

	_, err = newTestUtil().ValidateToken(token)
	assert.EqualError(t, err, "token has no session")
}

func TestGenerateToken_NoConfig(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{})
	_, _, err := j.GenerateToken("s", 1, "a@b.c", false)
	assert.Error(t, err)
}
