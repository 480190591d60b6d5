package middleware

import (
	"fmt"
	"sort"

	"github.com/labstack/echo/v4"
)

// Names of the middleware panels can reference
const (
	NameSecureHeaders       = "secure-headers"
	NameBodyLimit           = "body-limit"
	NameAuthenticateSession = "authenticate-session"
	NameVerifyCsrfToken     = "verify-csrf-token"
	NameAuthenticate        = "authenticate"
	NameThrottleLogin       = "throttle-login"
)

// Factory builds a middleware for the panel it is mounted on
type Factory func(panelID string) echo.MiddlewareFunc

// Registry maps middleware names to their factories
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named middleware that is the same for every panel
func (r *Registry) Register(name string, mw echo.MiddlewareFunc) {
	r.RegisterFactory(name, func(string) echo.MiddlewareFunc { return mw })
}

// RegisterFactory adds a named middleware built per panel
func (r *Registry) RegisterFactory(name string, f Factory) {
	r.factories[name] = f
}

// Has reports whether the name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Names lists the registered names in order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the named middleware, in order, for the panel
func (r *Registry) Resolve(panelID string, names []string) ([]echo.MiddlewareFunc, error) {
	out := make([]echo.MiddlewareFunc, 0, len(names))
	for _, n := range names {
		f, ok := r.factories[n]
		if !ok {
			return nil, fmt.Errorf("unknown middleware %q", n)
		}
		out = append(out, f(panelID))
	}
	return out, nil
}
