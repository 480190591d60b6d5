package handler

import (
	"errors"
	"net/http"
	"strings"

	"company-panel/internal/middleware"
	"company-panel/internal/store"
	"company-panel/pkg/logger"
	"company-panel/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type updateProfileRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email           *string `json:"email" validate:"omitempty,email,max=255"`
	ProfilePhotoURL *string `json:"profile_photo_url" validate:"omitempty,url"`
}

func (r *updateProfileRequest) normalize() {
	for _, f := range []*string{r.Name, r.Email} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

type updatePasswordRequest struct {
	CurrentPassword      string `json:"current_password" validate:"required"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type setPasswordRequest struct {
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type confirmPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// GetProfile returns the signed-in user's profile
func (h *Handler) GetProfile(c echo.Context) error {
	user := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, echo.Map{
		"user":      userResponse(user),
		"companies": h.policy.SortedTenants(user),
	})
}

// UpdateProfile changes name, email and, when profile photos are on, the photo URL
func (h *Handler) UpdateProfile(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req updateProfileRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if req.ProfilePhotoURL != nil && !h.cfg.Features.ProfilePhotos {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "profile photos are disabled"})
	}

	updated, err := h.store.UpdateProfile(c.Request().Context(), user.ID, store.ProfileUpdate{
		Name:            req.Name,
		Email:           req.Email,
		ProfilePhotoURL: req.ProfilePhotoURL,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already taken"})
		}
		return storeError(c, err, "update profile")
	}

	return c.JSON(http.StatusOK, echo.Map{"user": userResponse(updated)})
}

// DeleteProfilePhoto falls the avatar back to the generated initials
func (h *Handler) DeleteProfilePhoto(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if err := h.store.ClearProfilePhoto(c.Request().Context(), user.ID); err != nil {
		return storeError(c, err, "delete profile photo")
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdatePassword changes the password and signs out every other session
func (h *Handler) UpdatePassword(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req updatePasswordRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if !user.CheckPassword(req.CurrentPassword) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":  "validation failed",
			"errors": map[string]string{"current_password": "the provided password does not match your current password"},
		})
	}

	if err := h.store.UpdatePassword(c.Request().Context(), user.ID, req.Password, middleware.SessionID(c)); err != nil {
		return storeError(c, err, "update password")
	}

	logger.FromContext(c).Info("Password updated")
	prometheus.RecordAuthOperation("password_update")
	return c.NoContent(http.StatusNoContent)
}

// SetPassword sets a first password for accounts created without one
func (h *Handler) SetPassword(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user.HasPassword() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "password already set"})
	}

	var req setPasswordRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	if err := h.store.UpdatePassword(c.Request().Context(), user.ID, req.Password, middleware.SessionID(c)); err != nil {
		return storeError(c, err, "set password")
	}

	prometheus.RecordAuthOperation("password_set")
	return c.NoContent(http.StatusNoContent)
}

// ListSessions lists the user's live browser sessions
func (h *Handler) ListSessions(c echo.Context) error {
	user := middleware.CurrentUser(c)

	sessions, err := h.store.Sessions(c.Request().Context(), user.ID)
	if err != nil {
		return storeError(c, err, "list sessions")
	}

	current := middleware.SessionID(c)
	out := make([]echo.Map, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, echo.Map{
			"ip_address":        s.IPAddress,
			"user_agent":        s.UserAgent,
			"last_active":       s.LastActivity,
			"is_current_device": s.ID == current,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": out})
}

// LogoutOtherSessions revokes every session except the current one
func (h *Handler) LogoutOtherSessions(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req confirmPasswordRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if !user.CheckPassword(req.Password) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "the password is incorrect"})
	}

	if err := h.store.RevokeOtherSessions(c.Request().Context(), user.ID, middleware.SessionID(c)); err != nil {
		return storeError(c, err, "log out other sessions")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAccount removes the user with the companies they own
func (h *Handler) DeleteAccount(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req confirmPasswordRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if !user.CheckPassword(req.Password) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "the password is incorrect"})
	}

	if err := h.store.DeleteAccount(c.Request().Context(), user.ID); err != nil {
		return storeError(c, err, "delete account")
	}

	logger.FromContext(c).Info("Account deleted", zap.String("email", user.Email))
	prometheus.RecordAuthOperation("account_deletion")
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}
