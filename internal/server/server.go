package server

import (
	"context"
	"fmt"

	"company-panel/internal/handler"
	"company-panel/internal/middleware"
	"company-panel/internal/panel"
	"company-panel/internal/policy"
	"company-panel/internal/store"
	"company-panel/pkg/config"
	"company-panel/pkg/jwtutil"
	"company-panel/pkg/logger"
	"company-panel/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deps are the services the HTTP server is built from
type Deps struct {
	Config *config.Config
	Store  *store.Store
	Policy *policy.TenantAccess
	JWT    *jwtutil.JWTUtil
}

// Middleware builds the registry of named middleware panels can reference.
// Background work started here stops with ctx.
func Middleware(ctx context.Context, d Deps) *middleware.Registry {
	mws := middleware.NewRegistry()

	mws.Register(middleware.NameSecureHeaders, echomiddleware.Secure())
	mws.Register(middleware.NameBodyLimit, echomiddleware.BodyLimit("2M"))
	mws.Register(middleware.NameAuthenticateSession,
		middleware.NewAuthenticator(d.JWT, d.Store, d.Config.Session.CookieName).AuthenticateSession)
	mws.Register(middleware.NameVerifyCsrfToken,
		middleware.VerifyCsrfToken(d.Config.Session.CookieName, d.Config.Session.SecureCookie))
	mws.RegisterFactory(middleware.NameAuthenticate, func(panelID string) echo.MiddlewareFunc {
		return middleware.Authenticate(d.Policy, panelID)
	})

	limiter := middleware.NewRateLimiter(ctx, rate.Limit(d.Config.RateLimit.LoginRate), d.Config.RateLimit.LoginBurst)
	mws.Register(middleware.NameThrottleLogin, limiter.Middleware())

	return mws
}

// Panels registers the user and company panels and validates them against the middleware
func Panels(cfg *config.Config, mws *middleware.Registry) (*panel.Registry, error) {
	panels := panel.NewRegistry(mws)
	for _, p := range []*panel.Panel{
		panel.CompanyPanel(cfg.Features, cfg.Socialite),
		panel.UserPanel(cfg.Features),
	} {
		if err := panels.Register(p); err != nil {
			return nil, err
		}
	}
	if err := panels.Validate(); err != nil {
		return nil, fmt.Errorf("invalid panel configuration: %w", err)
	}
	return panels, nil
}

// New builds the echo server: global middleware, health and metrics endpoints,
// every registered panel and the token API
func New(ctx context.Context, d Deps) (*echo.Echo, error) {
	mws := Middleware(ctx, d)

	panels, err := Panels(d.Config, mws)
	if err != nil {
		return nil, err
	}

	throttle, err := mws.Resolve("", []string{middleware.NameThrottleLogin})
	if err != nil {
		return nil, err
	}

	h := handler.New(handler.Deps{
		Store:         d.Store,
		Policy:        d.Policy,
		JWT:           d.JWT,
		Config:        d.Config,
		Panels:        panels,
		LoginThrottle: throttle[0],
	})

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(corsConfig(d.Config.Server)))
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	if err := Mount(e, panels, mws, h, d.Policy); err != nil {
		return nil, err
	}
	if d.Config.Features.API {
		h.APIRoutes(e.Group("/api"))
	}

	return e, nil
}

// corsConfig admits cross-origin calls with credentials from the application URL only
func corsConfig(s config.ServerConfig) echomiddleware.CORSConfig {
	if s.AppURL == "" {
		return echomiddleware.DefaultCORSConfig
	}
	return echomiddleware.CORSConfig{
		AllowOrigins:     []string{s.AppURL},
		AllowMethods:     echomiddleware.DefaultCORSConfig.AllowMethods,
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, middleware.CSRFHeader},
		AllowCredentials: true,
	}
}

// Mount wires each panel onto its own group: the panel pipeline for every
// route, then the auth pipeline for signed-in routes, then tenant binding
// for company routes
func Mount(e *echo.Echo, panels *panel.Registry, mws *middleware.Registry, h *handler.Handler, gate middleware.TenantGate) error {
	log := logger.GetLogger()

	for _, p := range panels.Panels() {
		pipeline, err := mws.Resolve(p.ID, p.Middleware)
		if err != nil {
			return fmt.Errorf("panel %s: %w", p.ID, err)
		}
		authPipeline, err := mws.Resolve(p.ID, p.AuthMiddleware)
		if err != nil {
			return fmt.Errorf("panel %s: %w", p.ID, err)
		}

		g := e.Group("/"+p.Path, pipeline...)
		h.AuthRoutes(g, p)

		auth := g.Group("", authPipeline...)
		var tenant *echo.Group
		if p.Tenant.Enabled {
			tenant = auth.Group("/:"+middleware.TenantParam, middleware.BindTenant(gate))
		}
		h.PanelRoutes(auth, tenant, p)

		log.Info("Panel mounted",
			zap.String("panel", p.ID),
			zap.String("path", "/"+p.Path),
			zap.Bool("default", p.Default),
			zap.Bool("tenant", p.Tenant.Enabled))
	}

	prometheus.PanelsGauge.Set(float64(len(panels.Panels())))
	return nil
}
