package model

// Authenticatable is an identity that can sign in
type Authenticatable interface {
	AuthIdentifier() uint
	AuthEmail() string
	HasPassword() bool
	CheckPassword(plain string) bool
}

// HasAvatar exposes a displayable avatar
type HasAvatar interface {
	AvatarURL() string
}

// HasTenantMembership exposes the tenants an identity belongs to.
// Access decisions over it live in the policy package.
type HasTenantMembership interface {
	AuthIdentifier() uint
	AllTenants() []Tenant
	CurrentTenantRef() *uint
	MembershipRole(tenantID uint) (string, bool)
}
