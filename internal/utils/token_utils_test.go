package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestGenerateAndParseJWT(t *testing.T) {
	secret := "test-secret"
	userID := "user-123"
	expiry := time.Now().Add(time.Hour)

	token, err := GenerateJWT(userID, secret, expiry)
	assert.NoError(t, err, "Generating a token should not fail")
	assert.NotEmpty(t, token, "Token should not be empty")

	claims, err := ParseAndValidateJWT(token, secret)
	assert.NoError(t, err, "Parsing a fresh token should not fail")
	assert.Equal(t, userID, claims.UserID, "UserID claim should round-trip")
	assert.Equal(t, userID, claims.Subject, "Subject should match the user ID")
}

func TestParseJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("user-123", "right-secret", time.Now().Add(time.Hour))
	assert.NoError(t, err)

	_, err = ParseAndValidateJWT(token, "wrong-secret")
	assert.Error(t, err, "A token signed with a different secret should be rejected")
}

func TestParseJWT_Expired(t *testing.T) {
	token, err := GenerateJWT("user-123", "test-secret", time.Now().Add(-time.Minute))
	assert.NoError(t, err)

	_, err = ParseAndValidateJWT(token, "test-secret")
	assert.Error(t, err, "An expired token should be rejected")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseJWT_Garbage(t *testing.T) {
	_, err := ParseAndValidateJWT("not.a.jwt", "test-secret")
	assert.Error(t, err, "A malformed token should be rejected")
}

func TestHashAndCompareRefreshToken(t *testing.T) {
	raw := "some-opaque-refresh-token"
	hash := HashRefreshToken(raw)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, raw, hash, "Hash should not be the raw token")

	assert.True(t, CompareRefreshToken(raw, hash), "Matching token should compare true")
	assert.False(t, CompareRefreshToken("different-token", hash), "Non-matching token should compare false")
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	assert.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret-password", hash))
	assert.False(t, CheckPasswordHash("wrong-password", hash))
}

func TestGenerateSecureRandomString(t *testing.T) {
	a, err := GenerateSecureRandomString(32)
	assert.NoError(t, err)
	b, err := GenerateSecureRandomString(32)
	assert.NoError(t, err)
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b, "Two random strings should differ")
}
