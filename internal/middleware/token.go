package middleware

import (
	"context"
	"errors"
	"net/http"

	"company-panel/internal/model"
	"company-panel/internal/store"
	"company-panel/pkg/logger"
	"company-panel/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TokenStore is what API token authentication needs from persistence
type TokenStore interface {
	FindToken(ctx context.Context, plain string) (*model.PersonalAccessToken, error)
	UserByID(ctx context.Context, id uint) (*model.User, error)
}

// AuthenticateToken authenticates API requests with a personal access token
func AuthenticateToken(tokens TokenStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			plain := BearerToken(c)
			if plain == "" {
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			token, err := tokens.FindToken(c.Request().Context(), plain)
			if err != nil {
				if errors.Is(err, store.ErrTokenExpired) {
					prometheus.RecordAuthError("token_expired")
				} else {
					prometheus.RecordAuthError("invalid_token")
				}
				log.Debug("Rejected personal access token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			user, err := tokens.UserByID(c.Request().Context(), token.UserID)
			if err != nil {
				log.Error("Failed to load token owner", zap.Uint("token_id", token.ID), zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set(userKey, user)
			c.Set(tokenKey, token)
			logger.SetContextLogger(c, log.With(zap.Uint("user_id", user.ID), zap.Uint("token_id", token.ID)))
			return next(c)
		}
	}
}

// RequireAbility rejects API requests whose token lacks the ability
func RequireAbility(ability string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := AccessToken(c)
			if token == nil || !token.Can(ability) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "token lacks the " + ability + " ability"})
			}
			return next(c)
		}
	}
}
