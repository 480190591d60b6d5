package handler

import (
	"net/http"
	"strings"
	"time"

	"company-panel/internal/middleware"
	"company-panel/internal/model"
	"company-panel/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type createTokenRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Permissions []string `json:"permissions"`
}

func (r *createTokenRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

type updateTokenRequest struct {
	Permissions []string `json:"permissions" validate:"required"`
}

type tokenView struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Permissions []string   `json:"permissions"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func tokenResponse(t *model.PersonalAccessToken) tokenView {
	return tokenView{
		ID:          t.ID,
		Name:        t.Name,
		Permissions: t.Abilities,
		LastUsedAt:  t.LastUsedAt,
		CreatedAt:   t.CreatedAt,
	}
}

// ListTokens lists the user's personal access tokens along with the grantable permissions
func (h *Handler) ListTokens(c echo.Context) error {
	user := middleware.CurrentUser(c)

	tokens, err := h.store.Tokens(c.Request().Context(), user.ID)
	if err != nil {
		return storeError(c, err, "list tokens")
	}

	out := make([]tokenView, 0, len(tokens))
	for i := range tokens {
		out = append(out, tokenResponse(&tokens[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tokens":                out,
		"available_permissions": h.cfg.Roles.Permissions(),
		"default_permissions":   h.cfg.Roles.DefaultAPITokenPermissions,
	})
}

// CreateToken issues a token. The plain text value is only returned here.
func (h *Handler) CreateToken(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req createTokenRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	perms := req.Permissions
	if len(perms) == 0 {
		perms = h.cfg.Roles.DefaultAPITokenPermissions
	}
	if bad := h.unknownPermissions(perms); len(bad) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "unknown permissions", "permissions": bad})
	}

	plain, token, err := h.store.CreateToken(c.Request().Context(), user.ID, req.Name, perms)
	if err != nil {
		return storeError(c, err, "create token")
	}

	logger.FromContext(c).Info("Personal access token created", zap.Uint("token_id", token.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"plain_text_token": plain,
		"token":            tokenResponse(token),
	})
}

// UpdateToken replaces a token's permissions
func (h *Handler) UpdateToken(c echo.Context) error {
	user := middleware.CurrentUser(c)

	id, ok := uintParam(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "token not found"})
	}

	var req updateTokenRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if bad := h.unknownPermissions(req.Permissions); len(bad) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "unknown permissions", "permissions": bad})
	}

	token, err := h.store.UpdateTokenAbilities(c.Request().Context(), user.ID, id, req.Permissions)
	if err != nil {
		return storeError(c, err, "update token")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": tokenResponse(token)})
}

// DeleteToken revokes a token
func (h *Handler) DeleteToken(c echo.Context) error {
	user := middleware.CurrentUser(c)

	id, ok := uintParam(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "token not found"})
	}

	if err := h.store.DeleteToken(c.Request().Context(), user.ID, id); err != nil {
		return storeError(c, err, "delete token")
	}
	return c.NoContent(http.StatusNoContent)
}

// APIUser returns the token owner
func (h *Handler) APIUser(c echo.Context) error {
	return c.JSON(http.StatusOK, userResponse(middleware.CurrentUser(c)))
}

// APITenants lists the companies of the token owner
func (h *Handler) APITenants(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"companies": h.policy.SortedTenants(middleware.CurrentUser(c))})
}

func (h *Handler) unknownPermissions(perms []string) []string {
	known := make(map[string]bool)
	for _, p := range h.cfg.Roles.Permissions() {
		known[p] = true
	}
	var bad []string
	for _, p := range perms {
		if !known[p] {
			bad = append(bad, p)
		}
	}
	return bad
}
