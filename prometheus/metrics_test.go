package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware())
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	before := counterValue(t, HTTPRequestCounter.WithLabelValues("/ping", http.MethodGet, "200"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	after := counterValue(t, HTTPRequestCounter.WithLabelValues("/ping", http.MethodGet, "200"))
	assert.Equal(t, before+1, after)
}

func TestPolicyObserver(t *testing.T) {
	obs := PolicyObserver{}
	allowed := counterValue(t, TenantAccessCounter.WithLabelValues("allowed"))
	stale := counterValue(t, StaleDefaultTenantCounter)

	obs.TenantAccessDecided(true)
	obs.StaleDefaultTenant()

	assert.Equal(t, allowed+1, counterValue(t, TenantAccessCounter.WithLabelValues("allowed")))
	assert.Equal(t, stale+1, counterValue(t, StaleDefaultTenantCounter))
}

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", statusCategory(201))
	assert.Equal(t, "3xx", statusCategory(302))
	assert.Equal(t, "4xx", statusCategory(404))
	assert.Equal(t, "5xx", statusCategory(503))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
