package handler

import (
	"errors"
	"net/http"
	"strings"

	"company-panel/internal/middleware"
	"company-panel/internal/panel"
	"company-panel/internal/store"
	"company-panel/pkg/logger"
	"company-panel/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type tenantNameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (r *tenantNameRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

type switchTenantRequest struct {
	TenantID uint `json:"tenant_id" validate:"required"`
}

type tenantView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	PersonalCompany bool   `json:"personal_company"`
	Current         bool   `json:"current"`
	URL             string `json:"url"`
}

// Home sends the user to their company dashboard. Panels without tenancy
// answer with their own descriptor.
func (h *Handler) Home(p *panel.Panel) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := middleware.CurrentUser(c)
		if !p.Tenant.Enabled {
			return c.JSON(http.StatusOK, p.Describe(user, nil))
		}

		if t, ok := h.policy.HomeTenant(user); ok {
			return c.Redirect(http.StatusFound, p.PageURL(panel.PageDashboard, t.ID))
		}
		return c.Redirect(http.StatusFound, p.PageURL(p.Tenant.RegistrationPage, 0))
	}
}

// ListTenants feeds the company switcher
func (h *Handler) ListTenants(p *panel.Panel) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := middleware.CurrentUser(c)

		var currentID uint
		if t, ok := h.policy.DefaultTenant(user); ok {
			currentID = t.ID
		}

		tenants := h.policy.SortedTenants(user)
		out := make([]tenantView, 0, len(tenants))
		for _, t := range tenants {
			out = append(out, tenantView{
				ID:              t.ID,
				Name:            t.Name,
				PersonalCompany: t.PersonalCompany,
				Current:         t.ID == currentID,
				URL:             p.PageURL(panel.PageDashboard, t.ID),
			})
		}
		return c.JSON(http.StatusOK, echo.Map{"companies": out})
	}
}

// CreateTenant registers a new company owned by the user
func (h *Handler) CreateTenant(p *panel.Panel) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := middleware.CurrentUser(c)

		var req tenantNameRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}

		tenant, err := h.store.CreateTenant(c.Request().Context(), user.ID, req.Name)
		if err != nil {
			return storeError(c, err, "create company")
		}

		logger.FromContext(c).Info("Company created", zap.Uint("tenant_id", tenant.ID))
		prometheus.RecordTenantOperation("create")
		return c.JSON(http.StatusCreated, echo.Map{
			"company":  tenant,
			"redirect": p.PageURL(panel.PageDashboard, tenant.ID),
		})
	}
}

// SwitchTenant changes the user's current company
func (h *Handler) SwitchTenant(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req switchTenantRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	// checked against the loaded snapshot first so foreign ids never reach the store
	if !h.policy.CanAccessTenant(user, req.TenantID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
	}
	if err := h.store.SwitchCurrentTenant(c.Request().Context(), user.ID, req.TenantID); err != nil {
		return storeError(c, err, "switch company")
	}

	prometheus.RecordTenantOperation("switch")
	return c.JSON(http.StatusOK, echo.Map{"current_tenant_id": req.TenantID})
}

// Dashboard describes the panel inside the bound company
func (h *Handler) Dashboard(p *panel.Panel) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenant, _ := middleware.CurrentTenant(c)
		return c.JSON(http.StatusOK, p.Describe(middleware.CurrentUser(c), &tenant))
	}
}

// TenantSettings shows the company profile
func (h *Handler) TenantSettings(c echo.Context) error {
	user := middleware.CurrentUser(c)
	tenant, _ := middleware.CurrentTenant(c)
	role, _ := user.MembershipRole(tenant.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"company":            tenant,
		"role":               role,
		"can_update":         h.policy.CanUpdateTenant(user, tenant),
		"can_manage_members": h.policy.CanManageMembers(user, tenant),
	})
}

// UpdateTenantName renames the company. Only the owner may.
func (h *Handler) UpdateTenantName(c echo.Context) error {
	user := middleware.CurrentUser(c)
	tenant, _ := middleware.CurrentTenant(c)
	if !h.policy.CanUpdateTenant(user, tenant) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the owner can update the company"})
	}

	var req tenantNameRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	updated, err := h.store.RenameTenant(c.Request().Context(), tenant.ID, req.Name)
	if err != nil {
		return storeError(c, err, "update company")
	}

	prometheus.RecordTenantOperation("rename")
	return c.JSON(http.StatusOK, echo.Map{"company": updated})
}

// DeleteTenant removes the company. Personal companies are kept.
func (h *Handler) DeleteTenant(c echo.Context) error {
	user := middleware.CurrentUser(c)
	tenant, _ := middleware.CurrentTenant(c)
	if !h.policy.CanUpdateTenant(user, tenant) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the owner can delete the company"})
	}

	if err := h.store.DeleteTenant(c.Request().Context(), tenant.ID); err != nil {
		if errors.Is(err, store.ErrPersonalTenant) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "the personal company cannot be deleted"})
		}
		return storeError(c, err, "delete company")
	}

	logger.FromContext(c).Info("Company deleted", zap.Uint("tenant_id", tenant.ID))
	prometheus.RecordTenantOperation("delete")
	return c.NoContent(http.StatusNoContent)
}

// AcceptInvitation joins the signed-in user to the inviting company
func (h *Handler) AcceptInvitation(p *panel.Panel) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := middleware.CurrentUser(c)

		membership, err := h.store.AcceptInvitation(c.Request().Context(), user, c.Param("token"))
		if err != nil {
			if errors.Is(err, store.ErrInvitationMismatch) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "this invitation was sent to a different email address"})
			}
			return storeError(c, err, "accept invitation")
		}

		prometheus.RecordTenantOperation("join")
		return c.JSON(http.StatusOK, echo.Map{
			"membership": membership,
			"redirect":   p.PageURL(panel.PageDashboard, membership.TenantID),
		})
	}
}
