package panel

import (
	"company-panel/internal/middleware"
	"company-panel/internal/model"
	"company-panel/pkg/config"
)

// Panel IDs
const (
	UserPanelID    = "user"
	CompanyPanelID = "company"
)

// sessionMiddleware is the pipeline every panel route runs through
var sessionMiddleware = []string{
	middleware.NameSecureHeaders,
	middleware.NameBodyLimit,
	middleware.NameAuthenticateSession,
	middleware.NameVerifyCsrfToken,
}

// UserPanel configures the panel holding the user's own pages
func UserPanel(features config.Features) *Panel {
	p := &Panel{
		ID:        UserPanelID,
		Path:      "user",
		Colors:    map[string]string{"primary": "amber"},
		Login:     true,
		Pages:     []string{PageProfile},
		Widgets:   []string{WidgetAccount, WidgetInfo},
		UserMenuItems: []MenuItem{
			{
				Key:   "profile",
				Label: "Perfil",
				Icon:  "heroicon-o-user-circle",
				URL:   func(*model.User) string { return "/user/profile" },
			},
			{
				Key:   "company",
				Label: "Empresa",
				Icon:  "heroicon-o-building-office",
				URL:   personalCompanyURL,
			},
		},
		Middleware:     sessionMiddleware,
		AuthMiddleware: []string{middleware.NameAuthenticate},
	}

	if features.API {
		p.Pages = append(p.Pages, PagePersonalAccessTokens)
		p.NavigationItems = append(p.NavigationItems, MenuItem{
			Key:   "tokens",
			Label: "Tokens de acesso pessoal",
			Icon:  "heroicon-o-key",
			URL:   func(*model.User) string { return "/user/tokens" },
		})
	}
	return p
}

// CompanyPanel configures the tenant panel. It is the default panel and
// owns sign in, registration and password reset.
func CompanyPanel(features config.Features, socialite config.SocialiteConfig) *Panel {
	return &Panel{
		ID:            CompanyPanelID,
		Path:          "company",
		Default:       true,
		Colors:        map[string]string{"primary": "amber"},
		Login:         true,
		Registration:  true,
		PasswordReset: true,
		Tenant: TenantConfig{
			Enabled:          true,
			ProfilePage:      PageCompanySettings,
			RegistrationPage: PageCreateCompany,
		},
		Pages:   []string{PageDashboard, PageCompanySettings, PageCreateCompany, PageRoles},
		Widgets: []string{WidgetAccount, WidgetInfo},
		UserMenuItems: []MenuItem{
			{
				Key:   "profile",
				Label: "Perfil",
				Icon:  "heroicon-o-user-circle",
				URL:   func(*model.User) string { return "/user/profile" },
			},
		},
		Middleware:     sessionMiddleware,
		AuthMiddleware: []string{middleware.NameAuthenticate},
		Companies: &CompaniesPlugin{
			UserPanel: UserPanelID,
			Features:  features,
			Socialite: socialite,
		},
		RolesPermissions: true,
	}
}

// personalCompanyURL links to the dashboard of the user's personal company
func personalCompanyURL(u *model.User) string {
	if u != nil {
		if t, ok := u.PersonalTenant(); ok {
			return (&Panel{Path: "company", Tenant: TenantConfig{Enabled: true}}).PageURL(PageDashboard, t.ID)
		}
	}
	return "/company"
}
