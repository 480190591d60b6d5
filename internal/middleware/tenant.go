package middleware

import (
	"net/http"
	"strconv"

	"company-panel/internal/model"
	"company-panel/pkg/logger"
	"company-panel/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantParam is the route parameter holding the company ID
const TenantParam = "tenant"

// TenantGate decides whether a user may enter a company
type TenantGate interface {
	CanAccessTenant(user model.HasTenantMembership, tenantID uint) bool
}

// BindTenant resolves the :tenant route parameter against the user's memberships.
// Companies the user does not belong to answer 404, indistinguishable from missing ones.
func BindTenant(gate TenantGate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := strconv.ParseUint(c.Param(TenantParam), 10, 64)
			if err != nil {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
			}

			user := CurrentUser(c)
			if user == nil || !gate.CanAccessTenant(user, uint(id)) {
				logger.FromContext(c).Debug("Company access denied", zap.Uint64("tenant_id", id))
				prometheus.RecordTenantOperation("access_denied")
				return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
			}

			for _, t := range user.AllTenants() {
				if t.ID == uint(id) {
					c.Set(tenantKey, t)
					break
				}
			}
			return next(c)
		}
	}
}
