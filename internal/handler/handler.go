package handler

import (
	"errors"
	"net/http"
	"strconv"

	"company-panel/internal/model"
	"company-panel/internal/panel"
	"company-panel/internal/policy"
	"company-panel/internal/store"
	"company-panel/pkg/config"
	"company-panel/pkg/jwtutil"
	"company-panel/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler serves the panel pages and the API
type Handler struct {
	store         *store.Store
	policy        *policy.TenantAccess
	jwt           *jwtutil.JWTUtil
	cfg           *config.Config
	panels        *panel.Registry
	loginThrottle echo.MiddlewareFunc
}

// Deps are the collaborators of the handlers
type Deps struct {
	Store         *store.Store
	Policy        *policy.TenantAccess
	JWT           *jwtutil.JWTUtil
	Config        *config.Config
	Panels        *panel.Registry
	LoginThrottle echo.MiddlewareFunc
}

// New creates the handlers
func New(d Deps) *Handler {
	throttle := d.LoginThrottle
	if throttle == nil {
		throttle = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return &Handler{
		store:         d.Store,
		policy:        d.Policy,
		jwt:           d.JWT,
		cfg:           d.Config,
		panels:        d.Panels,
		loginThrottle: throttle,
	}
}

// statusFor maps store errors to HTTP status codes; unknown errors are 500
var statusFor = []struct {
	err    error
	status int
}{
	{store.ErrNotFound, http.StatusNotFound},
	{store.ErrNotMember, http.StatusNotFound},
	{store.ErrConflict, http.StatusConflict},
	{store.ErrPersonalTenant, http.StatusConflict},
	{store.ErrRoleInUse, http.StatusConflict},
	{store.ErrOwnerRemoval, http.StatusForbidden},
	{store.ErrInvitationMismatch, http.StatusForbidden},
	{store.ErrInvalidCredentials, http.StatusUnauthorized},
	{store.ErrInvalidRole, http.StatusUnprocessableEntity},
	{store.ErrUnknownPermission, http.StatusUnprocessableEntity},
	{store.ErrTokenExpired, http.StatusUnprocessableEntity},
	{store.ErrPasswordNotSet, http.StatusUnprocessableEntity},
}

// storeError answers with the status matching err, logging unexpected failures
func storeError(c echo.Context, err error, action string) error {
	for _, m := range statusFor {
		if errors.Is(err, m.err) {
			return c.JSON(m.status, echo.Map{"error": m.err.Error()})
		}
	}
	logger.FromContext(c).Error("Failed to "+action, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to " + action})
}

// bind parses and validates the request body into req. When it reports
// false the error response has already been written.
// normalizer is implemented by requests that clean their input before validation
type normalizer interface {
	normalize()
}

func bind(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		logger.FromContext(c).Debug("Failed to parse request", zap.Error(err))
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	if err := c.Validate(req); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return false, c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "errors": verr.Errors})
		}
		return false, c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	return true, nil
}

func uintParam(c echo.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

// homeURL is where a signed-in user lands: the dashboard of their home company,
// or company creation when they belong to none
func (h *Handler) homeURL(user *model.User) string {
	if h.panels == nil {
		return "/"
	}
	p, ok := h.panels.Default()
	if !ok {
		return "/"
	}
	if !p.Tenant.Enabled {
		return "/" + p.Path
	}
	if t, ok := h.policy.HomeTenant(user); ok {
		return p.PageURL(panel.PageDashboard, t.ID)
	}
	return p.PageURL(p.Tenant.RegistrationPage, 0)
}

type userView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	EmailVerified   bool   `json:"email_verified"`
	AvatarURL       string `json:"avatar_url"`
	HasPassword     bool   `json:"has_password"`
	CurrentTenantID *uint  `json:"current_tenant_id"`
}

func userResponse(u *model.User) userView {
	return userView{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		EmailVerified:   u.EmailVerifiedAt != nil,
		AvatarURL:       u.AvatarURL(),
		HasPassword:     u.HasPassword(),
		CurrentTenantID: u.CurrentTenantID,
	}
}
