package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// CSRFHeader carries the token echoed back from the _csrf cookie
const CSRFHeader = "X-CSRF-Token"

// VerifyCsrfToken protects cookie-authenticated requests. Requests that
// authenticate with a bearer token, or carry no session cookie, are skipped.
func VerifyCsrfToken(sessionCookie string, secure bool) echo.MiddlewareFunc {
	return echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			if BearerToken(c) != "" {
				return true
			}
			_, err := c.Cookie(sessionCookie)
			return err != nil
		},
		TokenLookup:    "header:" + CSRFHeader,
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: false,
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteLaxMode,
	})
}
