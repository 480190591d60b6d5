package policy

import (
	"testing"

	"company-panel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perms(names ...string) []model.Permission {
	out := make([]model.Permission, 0, len(names))
	for _, n := range names {
		out = append(out, model.Permission{Name: n})
	}
	return out
}

func testRoles() []model.Role {
	return []model.Role{
		{ID: 1, Name: "admin", Permissions: perms("create", "read", "update", "delete")},
		{ID: 2, Name: "editor", Permissions: perms("read", "create", "update")},
		{ID: 3, Name: "editor", TenantID: ptr(tenantB.ID), Permissions: perms("read")},
		{ID: 4, Name: "auditor", TenantID: ptr(tenantC.ID), Permissions: perms("read", "audit")},
	}
}

func TestResolveRole_TenantShadowsGlobal(t *testing.T) {
	role, ok := ResolveRole(testRoles(), tenantB.ID, "editor")
	require.True(t, ok)
	assert.Equal(t, uint(3), role.ID)

	role, ok = ResolveRole(testRoles(), tenantA.ID, "editor")
	require.True(t, ok)
	assert.Equal(t, uint(2), role.ID)

	_, ok = ResolveRole(testRoles(), tenantA.ID, "auditor")
	assert.False(t, ok)
}

func TestVisibleRoles(t *testing.T) {
	visible := VisibleRoles(testRoles(), tenantB.ID)
	var got []uint
	for _, r := range visible {
		got = append(got, r.ID)
	}
	assert.Equal(t, []uint{1, 3}, got)
}

func TestEffectiveGrant(t *testing.T) {
	p := NewTenantAccess(nil, nil)
	u1 := newU1()

	owner, ok := p.EffectiveGrant(u1, tenantA, testRoles())
	require.True(t, ok)
	assert.True(t, owner.Owner)
	assert.ElementsMatch(t, []string{"create", "read", "update", "delete"}, owner.Permissions)

	editor, ok := p.EffectiveGrant(u1, tenantB, testRoles())
	require.True(t, ok)
	assert.False(t, editor.Owner)
	assert.Equal(t, "editor", editor.Role)
	assert.Equal(t, []string{"read"}, editor.Permissions)
	assert.True(t, editor.Has("read"))
	assert.False(t, editor.Has("update"))

	_, ok = p.EffectiveGrant(u1, tenantC, testRoles())
	assert.False(t, ok)
}

func TestCanManageMembers(t *testing.T) {
	p := NewTenantAccess(nil, nil)
	u1 := newU1()

	assert.True(t, p.CanManageMembers(u1, tenantA))
	assert.False(t, p.CanManageMembers(u1, tenantB))
	assert.False(t, p.CanManageMembers(u1, tenantC))

	u1.Memberships[1].Role = RoleAdmin
	assert.True(t, p.CanManageMembers(u1, tenantB))

	assert.True(t, p.CanUpdateTenant(u1, tenantA))
	assert.False(t, p.CanUpdateTenant(u1, tenantB), "admins cannot rename or delete")
}
