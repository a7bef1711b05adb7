package middleware

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"salesInsight/pkg/logger"
)

// RequestLogger logs one line per request through the process logger.
func RequestLogger() echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			kv := []any{
				"method", v.Method,
				"path", v.URIPath,
				"route", v.RoutePath,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			}
			if v.RequestID != "" {
				kv = append(kv, "request_id", v.RequestID)
			}
			if v.Error != nil {
				kv = append(kv, "error", v.Error)
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", kv...)
			case v.Status >= 400:
				logger.Warn("http request", kv...)
			default:
				logger.Info("http request", kv...)
			}
			return nil
		},
	})
}
