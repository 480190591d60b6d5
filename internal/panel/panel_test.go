package panel

import (
	"testing"

	"company-panel/internal/middleware"
	"company-panel/internal/model"
	"company-panel/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allFeatures() config.Features {
	return config.Features{API: true, Companies: true, Invitations: true}
}

func knownMiddleware() *middleware.Registry {
	r := middleware.NewRegistry()
	noop := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	for _, n := range []string{
		middleware.NameSecureHeaders,
		middleware.NameBodyLimit,
		middleware.NameAuthenticateSession,
		middleware.NameVerifyCsrfToken,
		middleware.NameAuthenticate,
	} {
		r.Register(n, noop)
	}
	return r
}

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(knownMiddleware())
	require.NoError(t, r.Register(UserPanel(allFeatures())))
	require.NoError(t, r.Register(CompanyPanel(allFeatures(), config.SocialiteConfig{Providers: []string{"github"}})))
	return r
}

func TestDefaultPanelsAreValid(t *testing.T) {
	r := defaultRegistry(t)
	require.NoError(t, r.Validate())

	def, ok := r.Default()
	require.True(t, ok)
	assert.Equal(t, CompanyPanelID, def.ID)
}

func TestRegister_Duplicates(t *testing.T) {
	r := defaultRegistry(t)
	assert.Error(t, r.Register(&Panel{ID: UserPanelID, Path: "other"}))
	assert.Error(t, r.Register(&Panel{ID: "other", Path: "company"}))
}

func TestValidate_Problems(t *testing.T) {
	r := NewRegistry(knownMiddleware())
	require.NoError(t, r.Register(&Panel{
		ID:              "broken",
		Path:            "broken",
		Pages:           []string{"nowhere", PageDashboard},
		Widgets:         []string{"clock"},
		Middleware:      []string{"teleport"},
		NavigationItems: []MenuItem{{Key: "x"}},
		Companies:       &CompaniesPlugin{UserPanel: "missing"},
	}))

	err := r.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`unknown page "nowhere"`,
		`page "dashboard" needs a tenant panel`,
		`unknown widget "clock"`,
		`unknown middleware "teleport"`,
		`menu item "x" has no label`,
		`has no url`,
		`user panel "missing" is not registered`,
		"exactly one default panel",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_TenantPanelNeedsRegistrationPage(t *testing.T) {
	p := CompanyPanel(allFeatures(), config.SocialiteConfig{})
	p.Tenant.RegistrationPage = ""

	r := NewRegistry(knownMiddleware())
	require.NoError(t, r.Register(UserPanel(allFeatures())))
	require.NoError(t, r.Register(p))

	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant registration page")
}

func TestUserPanel_WithoutAPI(t *testing.T) {
	p := UserPanel(config.Features{})
	assert.False(t, p.HasPage(PagePersonalAccessTokens))
	assert.Empty(t, p.NavigationItems)
}

func TestCompanyPanel_WithoutCompanies(t *testing.T) {
	assert.True(t, CompanyPanel(allFeatures(), config.SocialiteConfig{}).ManagesCompanies())
	assert.False(t, CompanyPanel(config.Features{Invitations: true}, config.SocialiteConfig{}).ManagesCompanies())
	assert.False(t, UserPanel(allFeatures()).ManagesCompanies())
}

func TestDescribe(t *testing.T) {
	u := &model.User{
		ID:    1,
		Name:  "Ana Souza",
		Email: "ana@example.com",
		Memberships: []model.Membership{
			{TenantID: 5, Role: model.RoleOwner, Active: true, Tenant: model.Tenant{ID: 5, OwnerID: 1, Name: "Ana's Company", PersonalCompany: true}},
		},
	}
	tenant := u.Memberships[0].Tenant

	d := CompanyPanel(allFeatures(), config.SocialiteConfig{}).Describe(u, &tenant)
	require.NotNil(t, d.Tenant)
	assert.Equal(t, uint(5), d.Tenant.ID)
	assert.Equal(t, "amber", d.Colors["primary"])

	urls := map[string]string{}
	for _, pg := range d.Pages {
		urls[pg.Name] = pg.URL
	}
	assert.Equal(t, "/company/5", urls[PageDashboard])
	assert.Equal(t, "/company/5/settings", urls[PageCompanySettings])
	assert.Equal(t, "/company/new", urls[PageCreateCompany])

	require.Len(t, d.Widgets, 2)
	assert.Equal(t, "ana@example.com", d.Widgets[0].Data["email"])

	ud := UserPanel(allFeatures()).Describe(u, nil)
	require.Len(t, ud.UserMenu, 2)
	assert.Equal(t, "Perfil", ud.UserMenu[0].Label)
	assert.Equal(t, "/user/profile", ud.UserMenu[0].URL)
	assert.Equal(t, "Empresa", ud.UserMenu[1].Label)
	assert.Equal(t, "/company/5", ud.UserMenu[1].URL)
	require.Len(t, ud.Navigation, 1)
	assert.Equal(t, "Tokens de acesso pessoal", ud.Navigation[0].Label)
	assert.Equal(t, "/user/tokens", ud.Navigation[0].URL)
}

func TestPersonalCompanyURL_NoPersonalTenant(t *testing.T) {
	assert.Equal(t, "/company", personalCompanyURL(&model.User{ID: 3}))
	assert.Equal(t, "/company", personalCompanyURL(nil))
}
