package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"company-panel/internal/model"
	"company-panel/internal/policy"
	"company-panel/internal/store"
	"company-panel/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeStore struct {
	sessions map[string]*model.Session
	users    map[uint]*model.User
	tokens   map[string]*model.PersonalAccessToken
	touched  []string
}

func (f *fakeStore) LiveSession(_ context.Context, id string) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok || !s.IsLive(time.Now()) {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) TouchSession(_ context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeStore) UserByID(_ context.Context, id uint) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) FindToken(_ context.Context, plain string) (*model.PersonalAccessToken, error) {
	t, ok := f.tokens[plain]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func testUser() *model.User {
	return &model.User{
		ID:    1,
		Name:  "Ana",
		Email: "ana@example.com",
		Memberships: []model.Membership{
			{UserID: 1, TenantID: 10, Role: model.RoleOwner, Active: true, Tenant: model.Tenant{ID: 10, OwnerID: 1, Name: "Acme"}},
		},
	}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[string]*model.Session{
			"live":    {ID: "live", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)},
			"revoked": {ID: "revoked", UserID: 1, ExpiresAt: time.Now().Add(time.Hour), RevokedAt: ptrTime(time.Now())},
		},
		users: map[uint]*model.User{1: testUser()},
		tokens: map[string]*model.PersonalAccessToken{
			"1|secret": {ID: 1, UserID: 1, Abilities: []string{"read"}},
		},
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func okHandler(c echo.Context) error {
	if u := CurrentUser(c); u != nil {
		return c.JSON(http.StatusOK, echo.Map{"user_id": u.ID, "session": SessionID(c)})
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": 0})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateSession(t *testing.T) {
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "k", ExpirationHours: 1})
	fs := newFakeStore()
	auth := NewAuthenticator(jwt, fs, "session")
	gate := policy.NewTenantAccess(nil, nil)

	e := echo.New()
	e.GET("/me", okHandler, auth.AuthenticateSession, Authenticate(gate, "user"))

	live, _, err := jwt.GenerateToken("live", 1, "ana@example.com", false)
	require.NoError(t, err)
	revoked, _, err := jwt.GenerateToken("revoked", 1, "ana@example.com", false)
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: live})
		rec := serve(e, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"session":"live"`)
		assert.Contains(t, fs.touched, "live")
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+live)
		assert.Equal(t, http.StatusOK, serve(e, req).Code)
	})

	t.Run("revoked session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+revoked)
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(e, httptest.NewRequest(http.MethodGet, "/me", nil)).Code)
	})
}

func TestBindTenant(t *testing.T) {
	gate := policy.NewTenantAccess(nil, nil)
	e := echo.New()
	e.GET("/company/:tenant", func(c echo.Context) error {
		tenant, ok := CurrentTenant(c)
		require.True(t, ok)
		return c.String(http.StatusOK, tenant.Name)
	}, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetUser(c, testUser())
			return next(c)
		}
	}, BindTenant(gate))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/company/10", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(e, httptest.NewRequest(http.MethodGet, "/company/11", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(e, httptest.NewRequest(http.MethodGet, "/company/acme", nil)).Code)
}

func TestAuthenticateToken(t *testing.T) {
	e := echo.New()
	api := e.Group("/api", AuthenticateToken(newFakeStore()))
	api.GET("/user", okHandler, RequireAbility("read"))
	api.DELETE("/user", okHandler, RequireAbility("delete"))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer 1|secret")
	assert.Equal(t, http.StatusOK, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/user", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer 1|secret")
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer 1|wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(e, httptest.NewRequest(http.MethodGet, "/api/user", nil)).Code)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, rate.Every(time.Minute), 2)
	e := echo.New()
	e.POST("/login", okHandler, rl.Middleware())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodPost, "/login", nil)).Code)
	}
	rec := serve(e, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestVerifyCsrfToken(t *testing.T) {
	e := echo.New()
	e.POST("/change", okHandler, VerifyCsrfToken("session", false))

	// no session cookie: nothing to protect
	assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodPost, "/change", nil)).Code)

	req := httptest.NewRequest(http.MethodPost, "/change", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer token")
	req.AddCookie(&http.Cookie{Name: "session", Value: "x"})
	assert.Equal(t, http.StatusOK, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/change", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "x"})
	assert.NotEqual(t, http.StatusOK, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/change", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "x"})
	req.AddCookie(&http.Cookie{Name: "_csrf", Value: "tok"})
	req.Header.Set(CSRFHeader, "tok")
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NameBodyLimit, func(next echo.HandlerFunc) echo.HandlerFunc { return next })
	r.RegisterFactory(NameAuthenticate, func(panelID string) echo.MiddlewareFunc {
		assert.Equal(t, "company", panelID)
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	})

	assert.True(t, r.Has(NameBodyLimit))
	assert.False(t, r.Has("unknown"))
	assert.Equal(t, []string{NameAuthenticate, NameBodyLimit}, r.Names())

	mws, err := r.Resolve("company", []string{NameBodyLimit, NameAuthenticate})
	require.NoError(t, err)
	assert.Len(t, mws, 2)

	_, err = r.Resolve("company", []string{"unknown"})
	assert.Error(t, err)
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(RequestIDMiddleware)
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	assert.Equal(t, "abc", serve(e, req).Header().Get("X-Request-ID"))
}
