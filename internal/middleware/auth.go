package middleware

import (
	"context"
	"net/http"
	"strings"

	"company-panel/internal/model"
	"company-panel/pkg/jwtutil"
	"company-panel/pkg/logger"
	"company-panel/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SessionStore is what the session middleware needs from persistence
type SessionStore interface {
	LiveSession(ctx context.Context, id string) (*model.Session, error)
	TouchSession(ctx context.Context, id string) error
	UserByID(ctx context.Context, id uint) (*model.User, error)
}

// PanelGate decides whether an authenticated user may enter a panel
type PanelGate interface {
	CanEnterPanel(user model.HasTenantMembership, panelID string) bool
}

// Authenticator resolves browser sessions carried by the session cookie or a Bearer JWT
type Authenticator struct {
	jwt        *jwtutil.JWTUtil
	store      SessionStore
	cookieName string
}

// NewAuthenticator creates the session authenticator
func NewAuthenticator(jwt *jwtutil.JWTUtil, store SessionStore, cookieName string) *Authenticator {
	return &Authenticator{jwt: jwt, store: store, cookieName: cookieName}
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(c echo.Context) string {
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (a *Authenticator) sessionToken(c echo.Context) string {
	// personal access tokens ("<id>|<secret>") belong to the API group
	if token := BearerToken(c); token != "" && !strings.Contains(token, "|") {
		return token
	}
	if cookie, err := c.Cookie(a.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// AuthenticateSession loads the user behind a live session when the request
// carries one. Requests without a valid session continue unauthenticated.
func (a *Authenticator) AuthenticateSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := a.sessionToken(c)
		if token == "" {
			return next(c)
		}

		log := logger.FromContext(c)
		ctx := c.Request().Context()

		claims, err := a.jwt.ValidateToken(token)
		if err != nil {
			log.Debug("Ignoring invalid session token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return next(c)
		}

		session, err := a.store.LiveSession(ctx, claims.SessionID())
		if err != nil || session.UserID != claims.UserID {
			log.Debug("Ignoring token of an ended session", zap.String("session_id", claims.SessionID()))
			prometheus.RecordAuthError("session_revoked")
			return next(c)
		}

		user, err := a.store.UserByID(ctx, claims.UserID)
		if err != nil {
			log.Error("Failed to load session user", zap.Uint("user_id", claims.UserID), zap.Error(err))
			prometheus.RecordAuthError("user_not_found")
			return next(c)
		}

		if err := a.store.TouchSession(ctx, session.ID); err != nil {
			log.Warn("Failed to record session activity", zap.Error(err))
		}

		c.Set(userKey, user)
		c.Set(sessionKey, session.ID)
		logger.SetContextLogger(c, log.With(zap.Uint("user_id", user.ID)))
		return next(c)
	}
}

// Authenticate rejects requests without an authenticated user allowed into the panel
func Authenticate(gate PanelGate, panelID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				prometheus.RecordAuthError("unauthenticated")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
			}
			if !gate.CanEnterPanel(user, panelID) {
				logger.FromContext(c).Warn("Panel access denied", zap.String("panel", panelID))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
			}
			return next(c)
		}
	}
}
