package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"company-panel/internal/middleware"
	"company-panel/internal/model"
	"company-panel/internal/store"
	"company-panel/pkg/logger"
	"company-panel/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type registerRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (r *registerRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email                string `json:"email" validate:"required,email"`
	Token                string `json:"token" validate:"required"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// Register creates an account with its personal company and signs it in
func (h *Handler) Register(c echo.Context) error {
	log := logger.FromContext(c)

	var req registerRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	user, err := h.store.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return storeError(c, err, "register user")
	}
	prometheus.RegisterCounter.Inc()

	token, expiresAt, err := h.startSession(c, user, false)
	if err != nil {
		log.Error("Failed to start session after registration", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("email", user.Email))

	tenant, _ := h.policy.DefaultTenant(user)
	return c.JSON(http.StatusCreated, echo.Map{
		"token":      token,
		"expires_at": expiresAt,
		"user":       userResponse(user),
		"tenant":     tenant,
		"redirect":   h.homeURL(user),
	})
}

// Login verifies credentials and opens a browser session
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req loginRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	user, err := h.store.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		prometheus.RecordLogin(false)
		if errors.Is(err, store.ErrInvalidCredentials) {
			log.Info("Invalid login attempt", zap.String("email", req.Email))
			prometheus.RecordAuthError("invalid_credentials")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return storeError(c, err, "authenticate")
	}

	token, expiresAt, err := h.startSession(c, user, req.Remember)
	if err != nil {
		log.Error("Failed to start session", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	prometheus.RecordLogin(true)

	log.Info("User logged in", zap.Uint("user_id", user.ID), zap.String("email", user.Email))

	return c.JSON(http.StatusOK, echo.Map{
		"token":      token,
		"expires_at": expiresAt,
		"user":       userResponse(user),
		"redirect":   h.homeURL(user),
	})
}

// Logout ends the current browser session
func (h *Handler) Logout(c echo.Context) error {
	if id := middleware.SessionID(c); id != "" {
		if err := h.store.RevokeSession(c.Request().Context(), id); err != nil {
			return storeError(c, err, "log out")
		}
		prometheus.DecreaseActiveSessions()
	}
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// RequestPasswordReset issues a reset token. The answer does not reveal whether the account exists.
func (h *Handler) RequestPasswordReset(c echo.Context) error {
	log := logger.FromContext(c)

	var req passwordResetRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	token, err := h.store.CreatePasswordReset(c.Request().Context(), req.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Info("Password reset requested for unknown email", zap.String("email", req.Email))
	case err != nil:
		return storeError(c, err, "create password reset")
	default:
		prometheus.RecordAuthOperation("password_reset_request")
		// mail delivery is handled outside this service
		if !h.cfg.Server.IsProduction() {
			log.Debug("Password reset link issued", zap.String("email", req.Email), zap.String("reset_url", h.passwordResetURL(req.Email, token)))
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "If the account exists, a password reset link has been sent."})
}

func (h *Handler) passwordResetURL(email, token string) string {
	q := url.Values{"email": {email}, "token": {token}}
	return h.cfg.Server.AppURL + "/company/password-reset?" + q.Encode()
}

// ResetPassword sets a new password using a reset token
func (h *Handler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	err := h.store.ResetPassword(c.Request().Context(), req.Email, req.Token, req.Password)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrTokenExpired) {
		prometheus.RecordAuthError("invalid_reset_token")
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "this password reset token is invalid"})
	}
	if err != nil {
		return storeError(c, err, "reset password")
	}

	prometheus.RecordAuthOperation("password_reset")
	return c.JSON(http.StatusOK, echo.Map{"message": "Your password has been reset."})
}

// startSession opens a session for the user, sets the session cookie and returns the token
func (h *Handler) startSession(c echo.Context, user *model.User, remember bool) (string, time.Time, error) {
	ctx := c.Request().Context()
	expiresAt := time.Now().Add(h.jwt.Lifetime(remember))

	session, err := h.store.CreateSession(ctx, user.ID, c.RealIP(), c.Request().UserAgent(), expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}

	token, expiresAt, err := h.jwt.GenerateToken(session.ID, user.ID, user.Email, remember)
	if err != nil {
		return "", time.Time{}, err
	}
	prometheus.IncreaseActiveSessions()

	c.SetCookie(&http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return token, expiresAt, nil
}

func (h *Handler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
