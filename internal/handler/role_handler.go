package handler

import (
	"net/http"
	"strings"

	"company-panel/internal/middleware"
	"company-panel/internal/model"
	"company-panel/internal/policy"
	"company-panel/internal/store"

	"github.com/labstack/echo/v4"
)

type roleRequest struct {
	Name        string   `json:"name" validate:"required,max=64"`
	Label       string   `json:"label" validate:"max=255"`
	Description string   `json:"description" validate:"max=1024"`
	Permissions []string `json:"permissions"`
}

func (r *roleRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

type roleView struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Global      bool     `json:"global"`
	Permissions []string `json:"permissions"`
}

func roleResponse(r *model.Role) roleView {
	return roleView{
		ID:          r.ID,
		Name:        r.Name,
		Label:       r.Label,
		Description: r.Description,
		Global:      r.IsGlobal(),
		Permissions: r.PermissionNames(),
	}
}

// ListRoles lists the roles available in the bound company
func (h *Handler) ListRoles(c echo.Context) error {
	tenant, _ := middleware.CurrentTenant(c)

	roles, err := h.store.RolesForTenant(c.Request().Context(), tenant.ID)
	if err != nil {
		return storeError(c, err, "list roles")
	}

	visible := policy.VisibleRoles(roles, tenant.ID)
	out := make([]roleView, 0, len(visible))
	for i := range visible {
		out = append(out, roleResponse(&visible[i]))
	}

	perms, err := h.store.Permissions(c.Request().Context())
	if err != nil {
		return storeError(c, err, "list permissions")
	}
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}

	return c.JSON(http.StatusOK, echo.Map{"roles": out, "permissions": names})
}

// CreateRole adds a role scoped to the bound company
func (h *Handler) CreateRole(c echo.Context) error {
	tenant, ok, err := h.requireMemberManager(c)
	if !ok {
		return err
	}

	var req roleRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	role, err := h.store.CreateRole(c.Request().Context(), tenant.ID, roleInput(req))
	if err != nil {
		return storeError(c, err, "create role")
	}
	return c.JSON(http.StatusCreated, echo.Map{"role": roleResponse(role)})
}

// UpdateRole edits one of the company's own roles
func (h *Handler) UpdateRole(c echo.Context) error {
	tenant, ok, err := h.requireMemberManager(c)
	if !ok {
		return err
	}

	id, ok := uintParam(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
	}

	var req roleRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	role, err := h.store.UpdateRole(c.Request().Context(), tenant.ID, id, roleInput(req))
	if err != nil {
		return storeError(c, err, "update role")
	}
	return c.JSON(http.StatusOK, echo.Map{"role": roleResponse(role)})
}

// DeleteRole removes one of the company's own roles
func (h *Handler) DeleteRole(c echo.Context) error {
	tenant, ok, err := h.requireMemberManager(c)
	if !ok {
		return err
	}

	id, ok := uintParam(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
	}

	if err := h.store.DeleteRole(c.Request().Context(), tenant.ID, id); err != nil {
		return storeError(c, err, "delete role")
	}
	return c.NoContent(http.StatusNoContent)
}

// MyPermissions returns the caller's effective role and permissions in the bound company
func (h *Handler) MyPermissions(c echo.Context) error {
	user := middleware.CurrentUser(c)
	tenant, _ := middleware.CurrentTenant(c)

	roles, err := h.store.RolesForTenant(c.Request().Context(), tenant.ID)
	if err != nil {
		return storeError(c, err, "list roles")
	}

	grant, ok := h.policy.EffectiveGrant(user, tenant, roles)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"role":               grant.Role,
		"owner":              grant.Owner,
		"permissions":        grant.Permissions,
		"can_manage_members": h.policy.CanManageMembers(user, tenant),
	})
}

func roleInput(req roleRequest) store.RoleInput {
	return store.RoleInput{
		Name:        req.Name,
		Label:       req.Label,
		Description: req.Description,
		Permissions: req.Permissions,
	}
}
