package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestIDKey is the header and context key carrying the request ID
const RequestIDKey = "X-Request-ID"

const loggerKey = "logger"

// FromContext retrieves the request-scoped logger from the Echo context
func FromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(loggerKey).(*zap.Logger); ok {
		return l
	}

	requestID, ok := c.Get(RequestIDKey).(string)
	if !ok {
		requestID = c.Request().Header.Get(RequestIDKey)
		if requestID == "" {
			requestID = "unknown"
		}
	}
	return GetLogger().With(zap.String("request_id", requestID))
}

// SetContextLogger replaces the request-scoped logger, e.g. to add the user
func SetContextLogger(c echo.Context, l *zap.Logger) {
	c.Set(loggerKey, l)
}
