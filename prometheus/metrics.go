package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_login_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // "success" or "failure"
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "panel_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_tenant_operations_total",
			Help: "Total number of company operations",
		},
		[]string{"operation"}, // "create", "switch", "rename", "delete", "add_member", etc.
	)

	// Tenant access decisions made by the policy
	TenantAccessCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_tenant_access_total",
			Help: "Total number of company access decisions",
		},
		[]string{"decision"}, // "allowed" or "denied"
	)

	// Current tenant pointers found to reference a company the user left
	StaleDefaultTenantCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "panel_stale_default_tenant_total",
			Help: "Total number of stale current company pointers ignored",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Responses by status class
	StatusCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		},
		[]string{"category"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "invalid_credentials", "invalid_token", "session_revoked", etc.
	)

	// Auth operation counter
	AuthOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_auth_operations_total",
			Help: "Total number of account operations",
		},
		[]string{"operation"}, // "profile_update", "password_change", "token_create", etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panel_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panel_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Gauge metrics
var (
	// Active browser sessions issued by this process
	ActiveSessionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "panel_active_sessions",
			Help: "Number of browser sessions opened minus sessions closed",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "panel_info",
			Help: "Information about the panel service",
		},
		[]string{"version"},
	)

	// Registered panels
	PanelsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "panel_registered_panels",
			Help: "Number of panels mounted at startup",
		},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(TenantAccessCounter)
	prometheus.MustRegister(StaleDefaultTenantCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(StatusCategoryCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(AuthOperationCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveSessionsGauge)
	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(PanelsGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			code := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
			}
			status := strconv.Itoa(code)
			endpoint := c.Path()
			method := c.Request().Method

			// Record metrics
			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			StatusCategoryCounter.With(prometheus.Labels{
				"category": statusCategory(code),
			}).Inc()

			return err
		}
	}
}

func statusCategory(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// RecordLogin records a login attempt outcome
func RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	LoginCounter.With(prometheus.Labels{"result": result}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordAuthOperation records an account operation by type
func RecordAuthOperation(operation string) {
	AuthOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// IncreaseActiveSessions increments the active sessions gauge
func IncreaseActiveSessions() {
	ActiveSessionsGauge.Inc()
}

// DecreaseActiveSessions decrements the active sessions gauge
func DecreaseActiveSessions() {
	ActiveSessionsGauge.Dec()
}

// PolicyObserver feeds tenant access decisions into the metrics
type PolicyObserver struct{}

// TenantAccessDecided counts an access decision
func (PolicyObserver) TenantAccessDecided(allowed bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	TenantAccessCounter.With(prometheus.Labels{"decision": decision}).Inc()
}

// StaleDefaultTenant counts an ignored current company pointer
func (PolicyObserver) StaleDefaultTenant() {
	StaleDefaultTenantCounter.Inc()
}
