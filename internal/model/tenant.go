package model

import (
	"time"
)

// Tenant represents a company workspace
type Tenant struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	OwnerID         uint      `json:"owner_id" gorm:"index;not null"`
	Name            string    `json:"name" gorm:"type:varchar(255);not null"`
	PersonalCompany bool      `json:"personal_company" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relations
	Memberships []Membership `json:"-" gorm:"foreignKey:TenantID"`
}

// IsOwnedBy reports whether the user owns the tenant
func (t *Tenant) IsOwnedBy(userID uint) bool {
	return t.OwnerID == userID
}

// PersonalTenantName is the name given to a user's personal company
func PersonalTenantName(firstName string) string {
	return firstName + "'s Company"
}
