package middleware

import (
	"company-panel/internal/model"

	"github.com/labstack/echo/v4"
)

const (
	userKey    = "user"
	sessionKey = "session_id"
	tenantKey  = "tenant"
	tokenKey   = "access_token"
)

// CurrentUser returns the authenticated user, or nil
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}

// SessionID returns the browser session of the request, if any
func SessionID(c echo.Context) string {
	id, _ := c.Get(sessionKey).(string)
	return id
}

// CurrentTenant returns the company bound by the tenant middleware
func CurrentTenant(c echo.Context) (model.Tenant, bool) {
	t, ok := c.Get(tenantKey).(model.Tenant)
	return t, ok
}

// AccessToken returns the personal access token of an API request
func AccessToken(c echo.Context) *model.PersonalAccessToken {
	t, _ := c.Get(tokenKey).(*model.PersonalAccessToken)
	return t
}

// SetUser stores the authenticated user on the request
func SetUser(c echo.Context, u *model.User) {
	c.Set(userKey, u)
}
