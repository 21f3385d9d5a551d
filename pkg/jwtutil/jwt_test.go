package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUtil() *JWTUtil {
	return NewJWTUtil(&JWTConfig{SigningKey: "test-key", ExpirationHours: 168})
}

func TestGenerateAndValidate(t *testing.T) {
	j := newTestUtil()

	token, err := j.GenerateToken("u-1", "admin@smartcard.sn", "ADMIN")
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.ID)
	assert.Equal(t, "admin@smartcard.sn", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)

	lifetime := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 7*24*time.Hour, lifetime)
}

func TestValidateRejectsExpired(t *testing.T) {
	j := newTestUtil()
	j.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }

	token, err := j.GenerateToken("u-1", "a@b.sn", "USER")
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	token, err := NewJWTUtil(&JWTConfig{SigningKey: "other", ExpirationHours: 1}).GenerateToken("u-1", "a@b.sn", "USER")
	require.NoError(t, err)

	_, err = newTestUtil().ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	claims := UserClaims{ID: "u-1", Role: "ADMIN", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestUtil().ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateGarbage(t *testing.T) {
	_, err := newTestUtil().ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestMissingConfig(t *testing.T) {
	j := NewJWTUtil(nil)
	_, err := j.GenerateToken("u", "e", "r")
	assert.Error(t, err)
	_, err = j.ValidateToken("x")
	assert.Error(t, err)
}
