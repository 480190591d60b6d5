package panel

import (
	"errors"
	"fmt"
)

// MiddlewareSet reports which middleware names can be resolved
type MiddlewareSet interface {
	Has(name string) bool
}

// Registry holds the panels the server mounts. Panels are registered
// explicitly at startup; nothing is discovered.
type Registry struct {
	panels     []*Panel
	middleware MiddlewareSet
}

// NewRegistry creates a registry that validates middleware names against mw
func NewRegistry(mw MiddlewareSet) *Registry {
	return &Registry{middleware: mw}
}

// Register adds a panel, rejecting duplicate IDs and paths
func (r *Registry) Register(p *Panel) error {
	for _, existing := range r.panels {
		if existing.ID == p.ID {
			return fmt.Errorf("panel %q is already registered", p.ID)
		}
		if existing.Path == p.Path {
			return fmt.Errorf("panel %q uses path %q already taken by panel %q", p.ID, p.Path, existing.ID)
		}
	}
	r.panels = append(r.panels, p)
	return nil
}

// Get returns the panel with the given ID
func (r *Registry) Get(id string) (*Panel, bool) {
	for _, p := range r.panels {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Panels returns the panels in registration order
func (r *Registry) Panels() []*Panel {
	return r.panels
}

// Default returns the default panel
func (r *Registry) Default() (*Panel, bool) {
	for _, p := range r.panels {
		if p.Default {
			return p, true
		}
	}
	return nil, false
}

// Validate checks every registered panel and reports all problems at once
func (r *Registry) Validate() error {
	var errs []error

	defaults := 0
	for _, p := range r.panels {
		if p.Default {
			defaults++
		}
		errs = append(errs, r.validatePanel(p)...)
	}
	if defaults != 1 {
		errs = append(errs, fmt.Errorf("exactly one default panel is required, found %d", defaults))
	}

	return errors.Join(errs...)
}

func (r *Registry) validatePanel(p *Panel) []error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("panel %q: "+format, append([]interface{}{p.ID}, args...)...))
	}

	if p.ID == "" {
		fail("id is required")
	}
	if p.Path == "" {
		fail("path is required")
	}

	for _, name := range append(append([]string{}, p.Middleware...), p.AuthMiddleware...) {
		if r.middleware == nil || !r.middleware.Has(name) {
			fail("unknown middleware %q", name)
		}
	}
	for _, page := range p.Pages {
		info, ok := KnownPages[page]
		if !ok {
			fail("unknown page %q", page)
			continue
		}
		if info.TenantScoped && !p.Tenant.Enabled {
			fail("page %q needs a tenant panel", page)
		}
	}
	for _, w := range p.Widgets {
		if !KnownWidgets[w] {
			fail("unknown widget %q", w)
		}
	}
	for _, item := range append(append([]MenuItem{}, p.UserMenuItems...), p.NavigationItems...) {
		if item.Label == "" {
			fail("menu item %q has no label", item.Key)
		}
		if item.URL == nil {
			fail("menu item %q has no url", item.Label)
		}
	}

	if p.Tenant.Enabled {
		if p.Tenant.RegistrationPage == "" {
			fail("tenant panels need a tenant registration page")
		} else if !p.HasPage(p.Tenant.RegistrationPage) {
			fail("tenant registration page %q is not listed", p.Tenant.RegistrationPage)
		}
		if p.Tenant.ProfilePage != "" && !p.HasPage(p.Tenant.ProfilePage) {
			fail("tenant profile page %q is not listed", p.Tenant.ProfilePage)
		}
	}

	if p.Companies != nil {
		if _, ok := r.Get(p.Companies.UserPanel); !ok {
			fail("user panel %q is not registered", p.Companies.UserPanel)
		}
	}

	return errs
}
