package handler

import (
	"net/http"

	"company-panel/internal/middleware"
	"company-panel/internal/model"
	"company-panel/pkg/logger"
	"company-panel/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

type updateMemberRequest struct {
	Role string `json:"role" validate:"required"`
}

type memberActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type memberView struct {
	UserID    uint   `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	Owner     bool   `json:"owner"`
}

func memberResponse(m *model.Membership, tenant model.Tenant) memberView {
	v := memberView{UserID: m.UserID, Role: m.Role, Active: m.Active, Owner: tenant.IsOwnedBy(m.UserID)}
	if m.User != nil {
		v.Name = m.User.Name
		v.Email = m.User.Email
		v.AvatarURL = m.User.AvatarURL()
	}
	return v
}

func (h *Handler) requireMemberManager(c echo.Context) (model.Tenant, bool, error) {
	tenant, _ := middleware.CurrentTenant(c)
	if !h.policy.CanManageMembers(middleware.CurrentUser(c), tenant) {
		return tenant, false, c.JSON(http.StatusForbidden, echo.Map{"error": "you may not manage the members of this company"})
	}
	return tenant, true, nil
}

// ListMembers lists the members of the bound company
func (h *Handler) ListMembers(c echo.Context) error {
	tenant, _ := middleware.CurrentTenant(c)

	members, err := h.store.Members(c.Request().Context(), tenant.ID)
	if err != nil {
		return storeError(c, err, "list members")
	}

	out := make([]memberView, 0, len(members))
	for i := range members {
		out = append(out, memberResponse(&members[i], tenant))
	}
	return c.JSON(http.StatusOK, echo.Map{"members": out})
}

// AddMember adds a registered user directly. Used when invitations are off.
func (h *Handler) AddMember(c echo.Context) error {
	tenant, ok, err := h.requireMemberManager(c)
	if !ok {
		return err
	}

	var req addMemberRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	membership, err := h.store.AddMember(c.Request().Context(), tenant.ID, req.Email, req.Role)
	if err != nil {
		return storeError(c, err, "add member")
	}

	prometheus.RecordTenantOperation("add_member")
	return c.JSON(http.StatusCreated, echo.Map{"membership": membership})
}

// UpdateMember changes a member's role
func (h *Handler) UpdateMember(c echo.Context) error {
	tenant, ok, err := h.requireMemberManager(c)
	if !ok {
		return err
	}

	userID, ok := uintParam(c, "user")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
	}

	var req updateMemberRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	membership, err := h.store.UpdateMemberRole(c.Request().Context(), tenant.ID, userID, req.Role)
	if err != nil {
		return storeError(c, err, "update member")
	}
	return c.JSON(http.StatusOK, echo.Map{"member": memberResponse(membership, tenant)})
}

// SetMemberActive suspends or restores a member's access to the company
func (h *Handler) SetMemberActive(c echo.Context) error {
	tenant, ok, err := h.requireMemberManager(c)
	if !ok {
		return err
	}

	userID, ok := uintParam(c, "user")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
	}

	var req memberActiveRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	membership, err := h.store.SetMemberActive(c.Request().Context(), tenant.ID, userID, *req.Active)
	if err != nil {
		return storeError(c, err, "change member status")
	}

	logger.FromContext(c).Info("Member status changed",
		zap.Uint("tenant_id", tenant.ID), zap.Uint("member_id", userID), zap.Bool("active", membership.Active))
	return c.JSON(http.StatusOK, echo.Map{"member": memberResponse(membership, tenant)})
}

// RemoveMember removes a member. Any member may remove themselves.
func (h *Handler) RemoveMember(c echo.Context) error {
	user := middleware.CurrentUser(c)
	tenant, _ := middleware.CurrentTenant(c)

	userID, ok := uintParam(c, "user")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
	}
	if userID != user.ID && !h.policy.CanManageMembers(user, tenant) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may not manage the members of this company"})
	}

	if err := h.store.RemoveMember(c.Request().Context(), tenant.ID, userID); err != nil {
		return storeError(c, err, "remove member")
	}

	logger.FromContext(c).Info("Member removed", zap.Uint("tenant_id", tenant.ID), zap.Uint("member_id", userID))
	prometheus.RecordTenantOperation("remove_member")
	return c.NoContent(http.StatusNoContent)
}

// Invite sends an invitation to join the bound company
func (h *Handler) Invite(c echo.Context) error {
	tenant, ok, err := h.requireMemberManager(c)
	if !ok {
		return err
	}

	var req addMemberRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	invitation, token, err := h.store.Invite(c.Request().Context(), tenant.ID, req.Email, req.Role)
	if err != nil {
		return storeError(c, err, "invite member")
	}

	log := logger.FromContext(c)
	log.Info("Member invited", zap.Uint("tenant_id", tenant.ID), zap.String("email", invitation.Email))
	// notification delivery is handled outside this service
	if !h.cfg.Server.IsProduction() {
		log.Debug("Invitation issued", zap.String("accept_url", h.invitationURL(token)))
	}
	prometheus.RecordTenantOperation("invite")
	return c.JSON(http.StatusCreated, echo.Map{"invitation": invitation})
}

func (h *Handler) invitationURL(token string) string {
	return h.cfg.Server.AppURL + "/company/invitations/" + token + "/accept"
}

// ListInvitations lists the pending invitations of the bound company
func (h *Handler) ListInvitations(c echo.Context) error {
	tenant, ok, err := h.requireMemberManager(c)
	if !ok {
		return err
	}

	invitations, err := h.store.Invitations(c.Request().Context(), tenant.ID)
	if err != nil {
		return storeError(c, err, "list invitations")
	}
	return c.JSON(http.StatusOK, echo.Map{"invitations": invitations})
}

// CancelInvitation withdraws a pending invitation
func (h *Handler) CancelInvitation(c echo.Context) error {
	tenant, ok, err := h.requireMemberManager(c)
	if !ok {
		return err
	}

	id, ok := uintParam(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
	}

	if err := h.store.CancelInvitation(c.Request().Context(), tenant.ID, id); err != nil {
		return storeError(c, err, "cancel invitation")
	}
	return c.NoContent(http.StatusNoContent)
}
