package policy

import (
	"sort"
	"strings"

	"company-panel/internal/model"

	"go.uber.org/zap"
)

// Observer receives the outcome of policy decisions
type Observer interface {
	TenantAccessDecided(allowed bool)
	StaleDefaultTenant()
}

type nopObserver struct{}

func (nopObserver) TenantAccessDecided(bool) {}
func (nopObserver) StaleDefaultTenant()      {}

// TenantAccess decides which tenants a user may enter and which one they land on.
// It works on the user's preloaded memberships and never touches the database.
type TenantAccess struct {
	log      *zap.Logger
	observer Observer
}

// NewTenantAccess creates the tenant access policy
func NewTenantAccess(log *zap.Logger, observer Observer) *TenantAccess {
	if log == nil {
		log = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &TenantAccess{log: log, observer: observer}
}

// CanEnterPanel permits any authenticated user into any panel.
// Tenant gating happens through CanAccessTenant.
func (p *TenantAccess) CanEnterPanel(user model.HasTenantMembership, panelID string) bool {
	return !anonymous(user)
}

// CanAccessTenant reports whether the tenant is one of the user's memberships
func (p *TenantAccess) CanAccessTenant(user model.HasTenantMembership, tenantID uint) bool {
	allowed := false
	if !anonymous(user) {
		_, allowed = findTenant(user.AllTenants(), tenantID)
	}
	p.observer.TenantAccessDecided(allowed)
	return allowed
}

// ListAccessibleTenants returns every tenant the user belongs to, in no particular order
func (p *TenantAccess) ListAccessibleTenants(user model.HasTenantMembership) []model.Tenant {
	if anonymous(user) {
		return []model.Tenant{}
	}
	return user.AllTenants()
}

// SortedTenants returns the accessible tenants ordered by name for the switcher
func (p *TenantAccess) SortedTenants(user model.HasTenantMembership) []model.Tenant {
	tenants := p.ListAccessibleTenants(user)
	sort.SliceStable(tenants, func(i, j int) bool {
		a, b := strings.ToLower(tenants[i].Name), strings.ToLower(tenants[j].Name)
		if a == b {
			return tenants[i].ID < tenants[j].ID
		}
		return a < b
	})
	return tenants
}

// DefaultTenant returns the user's current tenant while it is still a membership.
// A pointer to a tenant the user no longer belongs to yields absent.
func (p *TenantAccess) DefaultTenant(user model.HasTenantMembership) (model.Tenant, bool) {
	if anonymous(user) {
		return model.Tenant{}, false
	}
	ref := user.CurrentTenantRef()
	if ref == nil {
		return model.Tenant{}, false
	}

	tenant, ok := findTenant(user.AllTenants(), *ref)
	if !ok {
		p.observer.StaleDefaultTenant()
		p.log.Debug("Ignoring stale current tenant",
			zap.Uint("user_id", user.AuthIdentifier()),
			zap.Uint("tenant_id", *ref))
		return model.Tenant{}, false
	}
	return tenant, true
}

// HomeTenant resolves the tenant to show when none was requested: the default
// tenant, then the user's personal tenant, then the first tenant by name.
func (p *TenantAccess) HomeTenant(user model.HasTenantMembership) (model.Tenant, bool) {
	if tenant, ok := p.DefaultTenant(user); ok {
		return tenant, true
	}

	tenants := p.SortedTenants(user)
	for _, t := range tenants {
		if t.PersonalCompany && t.IsOwnedBy(user.AuthIdentifier()) {
			return t, true
		}
	}
	if len(tenants) > 0 {
		return tenants[0], true
	}
	return model.Tenant{}, false
}

// anonymous reports a missing user, including a nil *model.User held in the interface
func anonymous(user model.HasTenantMembership) bool {
	if user == nil {
		return true
	}
	u, ok := user.(*model.User)
	return ok && u == nil
}

func findTenant(tenants []model.Tenant, id uint) (model.Tenant, bool) {
	for _, t := range tenants {
		if t.ID == id {
			return t, true
		}
	}
	return model.Tenant{}, false
}
