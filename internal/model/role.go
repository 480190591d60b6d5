package model

import (
	"time"
)

// GuardWeb is the only guard roles are defined for
const GuardWeb = "web"

// Role is a named permission grant, global or scoped to one tenant
type Role struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"type:varchar(125);not null;index"`
	Label       string       `json:"label" gorm:"type:varchar(255)"`
	Description string       `json:"description" gorm:"type:text"`
	TenantID    *uint        `json:"tenant_id" gorm:"index"` // nil for global roles
	GuardName   string       `json:"guard_name" gorm:"type:varchar(125);not null;default:'web'"`
	Permissions []Permission `json:"permissions" gorm:"many2many:role_permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsGlobal reports whether the role applies to every tenant
func (r *Role) IsGlobal() bool {
	return r.TenantID == nil
}

// PermissionNames returns the names of the role's permissions
func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}

// HasPermission reports whether the role grants the named permission
func (r *Role) HasPermission(name string) bool {
	for _, p := range r.Permissions {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Permission is a named ability a role can grant
type Permission struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(125);uniqueIndex;not null"`
	GuardName string    `json:"guard_name" gorm:"type:varchar(125);not null;default:'web'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
