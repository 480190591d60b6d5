package policy

import (
	"company-panel/internal/model"
)

// Admin role key. Admins manage members alongside the owner.
const RoleAdmin = "admin"

// Grant is a user's effective role and permissions inside one tenant
type Grant struct {
	TenantID    uint     `json:"tenant_id"`
	Role        string   `json:"role"`
	Owner       bool     `json:"owner"`
	Permissions []string `json:"permissions"`
}

// Has reports whether the grant includes the permission
func (g Grant) Has(permission string) bool {
	for _, p := range g.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// ResolveRole finds the role named key as seen from the tenant.
// A tenant-scoped role shadows a global role with the same name.
func ResolveRole(roles []model.Role, tenantID uint, key string) (model.Role, bool) {
	var global *model.Role
	for i := range roles {
		r := &roles[i]
		if r.Name != key {
			continue
		}
		if r.TenantID != nil && *r.TenantID == tenantID {
			return *r, true
		}
		if r.IsGlobal() && global == nil {
			global = r
		}
	}
	if global != nil {
		return *global, true
	}
	return model.Role{}, false
}

// VisibleRoles returns the roles usable in the tenant, with shadowed globals removed
func VisibleRoles(roles []model.Role, tenantID uint) []model.Role {
	scoped := make(map[string]bool)
	for _, r := range roles {
		if r.TenantID != nil && *r.TenantID == tenantID {
			scoped[r.Name] = true
		}
	}

	out := make([]model.Role, 0, len(roles))
	for _, r := range roles {
		switch {
		case r.TenantID != nil && *r.TenantID == tenantID:
			out = append(out, r)
		case r.IsGlobal() && !scoped[r.Name]:
			out = append(out, r)
		}
	}
	return out
}

// EffectiveGrant computes the user's grant in the tenant from the roles visible there.
// The owner holds every permission any visible role grants.
func (p *TenantAccess) EffectiveGrant(user model.HasTenantMembership, tenant model.Tenant, roles []model.Role) (Grant, bool) {
	if anonymous(user) {
		return Grant{}, false
	}
	key, ok := user.MembershipRole(tenant.ID)
	if !ok {
		return Grant{}, false
	}

	visible := VisibleRoles(roles, tenant.ID)
	grant := Grant{TenantID: tenant.ID, Role: key, Permissions: []string{}}

	if key == model.RoleOwner || tenant.IsOwnedBy(user.AuthIdentifier()) {
		grant.Role = model.RoleOwner
		grant.Owner = true
		seen := make(map[string]bool)
		for _, r := range visible {
			for _, name := range r.PermissionNames() {
				if !seen[name] {
					seen[name] = true
					grant.Permissions = append(grant.Permissions, name)
				}
			}
		}
		return grant, true
	}

	if role, found := ResolveRole(visible, tenant.ID, key); found {
		grant.Permissions = append(grant.Permissions, role.PermissionNames()...)
	}
	return grant, true
}

// CanManageMembers reports whether the user may add, change or remove members
func (p *TenantAccess) CanManageMembers(user model.HasTenantMembership, tenant model.Tenant) bool {
	if anonymous(user) {
		return false
	}
	role, ok := user.MembershipRole(tenant.ID)
	if !ok {
		return false
	}
	return role == model.RoleOwner || role == RoleAdmin || tenant.IsOwnedBy(user.AuthIdentifier())
}

// CanUpdateTenant reports whether the user may rename or delete the tenant
func (p *TenantAccess) CanUpdateTenant(user model.HasTenantMembership, tenant model.Tenant) bool {
	if anonymous(user) {
		return false
	}
	if _, ok := user.MembershipRole(tenant.ID); !ok {
		return false
	}
	return tenant.IsOwnedBy(user.AuthIdentifier())
}
