package model

import (
	"time"
)

// Session represents a browser session.
// Its ID is carried as the jti of the session token.
type Session struct {
	ID           string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID       uint       `json:"user_id" gorm:"index;not null"`
	IPAddress    string     `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
	LastActivity time.Time  `json:"last_activity"`
	ExpiresAt    time.Time  `json:"expires_at"`
	RevokedAt    *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsLive reports whether the session can still authenticate requests
func (s *Session) IsLive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// PasswordResetToken is a single-use password reset grant
type PasswordResetToken struct {
	Email     string    `json:"email" gorm:"type:varchar(255);primaryKey"`
	TokenHash string    `json:"-" gorm:"type:varchar(64);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordResetTTL is how long a reset token stays valid
const PasswordResetTTL = 60 * time.Minute

// IsExpired checks if the reset token is expired
func (p *PasswordResetToken) IsExpired(now time.Time) bool {
	return now.After(p.CreatedAt.Add(PasswordResetTTL))
}
