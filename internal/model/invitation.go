package model

import (
	"time"
)

// Invitation represents a pending invite to join a tenant
type Invitation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"not null;uniqueIndex:idx_invitation_tenant_email"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_invitation_tenant_email"`
	Role      string    `json:"role" gorm:"type:varchar(50);not null"`
	TokenHash string    `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID"`
}
