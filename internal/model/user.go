package model

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents the user model stored in the database
type User struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Name            string     `json:"name" gorm:"type:varchar(255);not null"`
	Email           string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password        string     `json:"-" gorm:"type:varchar(255)"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	ProfilePhotoURL string     `json:"profile_photo_url,omitempty" gorm:"type:varchar(2048)"`
	CurrentTenantID *uint      `json:"current_tenant_id" gorm:"index"` // may point at a tenant the user has since left
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Relations
	Memberships []Membership `json:"-" gorm:"foreignKey:UserID"`
}

var (
	_ Authenticatable     = (*User)(nil)
	_ HasAvatar           = (*User)(nil)
	_ HasTenantMembership = (*User)(nil)
)

// AuthIdentifier returns the user's primary key
func (u *User) AuthIdentifier() uint {
	return u.ID
}

// AuthEmail returns the address the user signs in with
func (u *User) AuthEmail() string {
	return u.Email
}

// HasPassword reports whether a password has been set
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// SetPassword hashes and stores the plain password
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword compares the plain password against the stored hash
func (u *User) CheckPassword(plain string) bool {
	if u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// FirstName returns the first word of the user's name
func (u *User) FirstName() string {
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return u.Name
	}
	return fields[0]
}

// AvatarURL returns the uploaded photo, or a generated initials avatar
func (u *User) AvatarURL() string {
	if u.ProfilePhotoURL != "" {
		return u.ProfilePhotoURL
	}

	var initials strings.Builder
	for _, word := range strings.Fields(u.Name) {
		initials.WriteString(strings.ToUpper(string([]rune(word)[0])))
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(initials.String()) + "&color=7F9CF5&background=EBF4FF"
}

// AllTenants returns the tenants of the user's active memberships.
// Memberships must be preloaded with their tenant.
func (u *User) AllTenants() []Tenant {
	tenants := make([]Tenant, 0, len(u.Memberships))
	for _, m := range u.Memberships {
		if !m.Active || m.Tenant.ID == 0 {
			continue
		}
		tenants = append(tenants, m.Tenant)
	}
	return tenants
}

// CurrentTenantRef returns the persisted current tenant pointer, unchecked
func (u *User) CurrentTenantRef() *uint {
	return u.CurrentTenantID
}

// MembershipRole returns the user's role key in the tenant
func (u *User) MembershipRole(tenantID uint) (string, bool) {
	for _, m := range u.Memberships {
		if m.TenantID == tenantID && m.Active && m.Tenant.ID != 0 {
			return m.Role, true
		}
	}
	return "", false
}

// PersonalTenant returns the personal company the user owns
func (u *User) PersonalTenant() (Tenant, bool) {
	for _, t := range u.AllTenants() {
		if t.PersonalCompany && t.IsOwnedBy(u.ID) {
			return t, true
		}
	}
	return Tenant{}, false
}
