package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// UserClaims represents the JWT claims of a browser session.
// The registered ID claim carries the session ID.
type UserClaims struct {
	Email    string `json:"email"`
	UserID   uint   `json:"user_id"`
	Remember bool   `json:"remember,omitempty"`
	jwt.RegisteredClaims
}

// SessionID returns the session the token belongs to
func (c *UserClaims) SessionID() string {
	return c.ID
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *JWTConfig
	now    func() time.Time
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *JWTConfig) *JWTUtil {
	return &JWTUtil{
		config: config,
		now:    time.Now,
	}
}

// Lifetime returns how long an issued token stays valid
func (j *JWTUtil) Lifetime(remember bool) time.Duration {
	lifetime := time.Duration(j.config.ExpirationHours) * time.Hour
	if remember {
		// remembered sessions outlive the browser session by a month
		lifetime += 30 * 24 * time.Hour
	}
	return lifetime
}

// GenerateToken creates a signed session token for the user
func (j *JWTUtil) GenerateToken(sessionID string, userID uint, email string, remember bool) (string, time.Time, error) {
	if j.config == nil || j.config.SigningKey == "" {
		return "", time.Time{}, errors.New("JWT configuration not provided")
	}

	now := j.now()
	expiresAt := now.Add(j.Lifetime(remember))

	claims := UserClaims{
		Email:    email,
		UserID:   userID,
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.config.SigningKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates and parses the JWT token
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if j.config == nil || j.config.SigningKey == "" {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ID == "" {
		return nil, errors.New("token has no session")
	}
	return claims, nil
}
