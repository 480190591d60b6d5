package model

import (
	"time"
)

// PersonalAccessToken represents a user-issued API token.
// Only a hash of the secret is stored.
type PersonalAccessToken struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"index;not null"`
	Name       string     `json:"name" gorm:"type:varchar(255);not null"`
	TokenHash  string     `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	Abilities  []string   `json:"abilities" gorm:"serializer:json"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Can reports whether the token carries the ability
func (t *PersonalAccessToken) Can(ability string) bool {
	for _, a := range t.Abilities {
		if a == "*" || a == ability {
			return true
		}
	}
	return false
}

// IsExpired checks if the token is expired
func (t *PersonalAccessToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
