package panel

import (
	"strconv"

	"company-panel/internal/model"
	"company-panel/pkg/config"
)

// Pages a panel can list
const (
	PageDashboard            = "dashboard"
	PageProfile              = "profile"
	PagePersonalAccessTokens = "personal-access-tokens"
	PageCompanySettings      = "company-settings"
	PageCreateCompany        = "create-company"
	PageRoles                = "roles"
)

// Widgets a panel can list
const (
	WidgetAccount = "account"
	WidgetInfo    = "info"
)

// PageInfo describes a known page
type PageInfo struct {
	Slug         string
	Title        string
	TenantScoped bool
}

// KnownPages is the page catalog panels are validated against
var KnownPages = map[string]PageInfo{
	PageDashboard:            {Slug: "", Title: "Dashboard", TenantScoped: true},
	PageProfile:              {Slug: "profile", Title: "Profile"},
	PagePersonalAccessTokens: {Slug: "tokens", Title: "API Tokens"},
	PageCompanySettings:      {Slug: "settings", Title: "Company Settings", TenantScoped: true},
	PageCreateCompany:        {Slug: "new", Title: "Create Company"},
	PageRoles:                {Slug: "roles", Title: "Roles", TenantScoped: true},
}

// KnownWidgets is the widget catalog panels are validated against
var KnownWidgets = map[string]bool{
	WidgetAccount: true,
	WidgetInfo:    true,
}

// URLResolver builds a link for the signed-in user
type URLResolver func(u *model.User) string

// MenuItem is an entry of the user menu or the navigation
type MenuItem struct {
	Key   string
	Label string
	Icon  string
	URL   URLResolver
}

// TenantConfig makes a panel tenant-scoped
type TenantConfig struct {
	Enabled          bool
	ProfilePage      string
	RegistrationPage string
}

// CompaniesPlugin configures the company management features of a panel
type CompaniesPlugin struct {
	UserPanel string
	Features  config.Features
	Socialite config.SocialiteConfig
}

// Panel is the explicit configuration of one panel
type Panel struct {
	ID            string
	Path          string
	Default       bool
	Colors        map[string]string
	Login         bool
	Registration  bool
	PasswordReset bool

	Tenant          TenantConfig
	Pages           []string
	Widgets         []string
	UserMenuItems   []MenuItem
	NavigationItems []MenuItem

	// Middleware runs on every route of the panel, AuthMiddleware only
	// on routes that require a signed-in user.
	Middleware     []string
	AuthMiddleware []string

	Companies        *CompaniesPlugin
	RolesPermissions bool
}

// HasPage reports whether the panel lists the page
func (p *Panel) HasPage(name string) bool {
	for _, pg := range p.Pages {
		if pg == name {
			return true
		}
	}
	return false
}

// ManagesCompanies reports whether users may create companies and manage their members and roles
func (p *Panel) ManagesCompanies() bool {
	return p.Companies != nil && p.Companies.Features.Companies
}

// PageURL returns the URL of a page of the panel, within the tenant when the page is tenant-scoped
func (p *Panel) PageURL(name string, tenantID uint) string {
	info := KnownPages[name]
	url := "/" + p.Path
	if info.TenantScoped && p.Tenant.Enabled {
		url += "/" + strconv.FormatUint(uint64(tenantID), 10)
	}
	if info.Slug != "" {
		url += "/" + info.Slug
	}
	return url
}
