package handler

import (
	"company-panel/internal/middleware"
	"company-panel/internal/panel"

	"github.com/labstack/echo/v4"
)

// AuthRoutes registers the guest routes of the panel: sign in, registration and password reset
func (h *Handler) AuthRoutes(g *echo.Group, p *panel.Panel) {
	if p.Login {
		g.POST("/login", h.Login, h.loginThrottle)
	}
	if p.Registration {
		g.POST("/register", h.Register, h.loginThrottle)
	}
	if p.PasswordReset {
		g.POST("/password-reset/request", h.RequestPasswordReset, h.loginThrottle)
		g.POST("/password-reset/reset", h.ResetPassword, h.loginThrottle)
	}
}

// PanelRoutes registers the home, logout and page routes of the panel.
// auth holds routes for signed-in users; tenant is nil unless the panel is tenant-scoped.
func (h *Handler) PanelRoutes(auth, tenant *echo.Group, p *panel.Panel) {
	auth.GET("", h.Home(p))
	auth.POST("/logout", h.Logout)

	for _, page := range p.Pages {
		switch page {
		case panel.PageProfile:
			h.profileRoutes(auth)
		case panel.PagePersonalAccessTokens:
			if h.cfg.Features.API {
				auth.GET("/tokens", h.ListTokens)
				auth.POST("/tokens", h.CreateToken)
				auth.PUT("/tokens/:id", h.UpdateToken)
				auth.DELETE("/tokens/:id", h.DeleteToken)
			}
		case panel.PageCreateCompany:
			if p.ManagesCompanies() {
				auth.POST("/new", h.CreateTenant(p))
			}
		case panel.PageDashboard:
			if tenant != nil {
				tenant.GET("", h.Dashboard(p))
			}
		case panel.PageCompanySettings:
			if tenant != nil {
				h.companyRoutes(auth, tenant, p)
			}
		case panel.PageRoles:
			if tenant != nil && p.RolesPermissions {
				tenant.GET("/permissions", h.MyPermissions)
				if p.ManagesCompanies() {
					tenant.GET("/roles", h.ListRoles)
					tenant.POST("/roles", h.CreateRole)
					tenant.PUT("/roles/:id", h.UpdateRole)
					tenant.DELETE("/roles/:id", h.DeleteRole)
				}
			}
		}
	}

	if tenant != nil {
		auth.GET("/tenants", h.ListTenants(p))
		if h.cfg.Features.SwitchCurrentCompany && p.ManagesCompanies() {
			auth.PUT("/current", h.SwitchTenant)
		}
	}
}

func (h *Handler) profileRoutes(auth *echo.Group) {
	f := h.cfg.Features

	auth.GET("/profile", h.GetProfile)
	if f.UpdateProfileInformation {
		auth.PUT("/profile", h.UpdateProfile)
	}
	if f.ProfilePhotos {
		auth.DELETE("/profile/photo", h.DeleteProfilePhoto)
	}
	if f.UpdatePasswords {
		auth.PUT("/password", h.UpdatePassword)
	}
	if f.SetPasswords {
		auth.POST("/password", h.SetPassword)
	}
	if f.ManageBrowserSessions {
		auth.GET("/sessions", h.ListSessions)
		auth.DELETE("/sessions/others", h.LogoutOtherSessions)
	}
	if f.AccountDeletion {
		auth.DELETE("/account", h.DeleteAccount)
	}
}

func (h *Handler) companyRoutes(auth, tenant *echo.Group, p *panel.Panel) {
	tenant.GET("/settings", h.TenantSettings)
	tenant.PUT("/settings", h.UpdateTenantName)
	if !p.ManagesCompanies() {
		return
	}
	tenant.DELETE("", h.DeleteTenant)

	tenant.GET("/members", h.ListMembers)
	tenant.PUT("/members/:user", h.UpdateMember)
	tenant.PUT("/members/:user/active", h.SetMemberActive)
	tenant.DELETE("/members/:user", h.RemoveMember)

	if p.Companies.Features.Invitations {
		tenant.POST("/invitations", h.Invite)
		tenant.GET("/invitations", h.ListInvitations)
		tenant.DELETE("/invitations/:id", h.CancelInvitation)
		auth.POST("/invitations/:token/accept", h.AcceptInvitation(p))
	} else {
		tenant.POST("/members", h.AddMember)
	}
}

// APIRoutes registers the personal access token API
func (h *Handler) APIRoutes(g *echo.Group) {
	g.Use(middleware.AuthenticateToken(h.store))

	read := middleware.RequireAbility("read")
	g.GET("/user", h.APIUser, read)
	g.GET("/tenants", h.APITenants, read)
}
