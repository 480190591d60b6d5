package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// GenerateSecureToken creates a secure random token string
func GenerateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken returns the hex sha256 digest stored in place of a token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// AllModels lists every model for migrations
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Tenant{},
		&Membership{},
		&Permission{},
		&Role{},
		&PersonalAccessToken{},
		&Invitation{},
		&Session{},
		&PasswordResetToken{},
	}
}
