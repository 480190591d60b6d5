package model

import (
	"time"
)

// RoleOwner is the membership role of the user who created the tenant.
// It is never assignable through member management.
const RoleOwner = "owner"

// Membership links a user to a tenant with a role key
type Membership struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_membership_user_tenant"`
	TenantID  uint      `json:"tenant_id" gorm:"not null;uniqueIndex:idx_membership_user_tenant;index"`
	Role      string    `json:"role" gorm:"type:varchar(50);not null"` // 'owner' or a role name
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID"`
}
