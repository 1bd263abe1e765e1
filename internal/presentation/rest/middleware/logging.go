package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
)

// LoggingMiddleware リクエスト単位のアクセスログ
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			logger.Debug(req.Context(), "HTTP request started", map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"remote_addr": c.RealIP(),
				"user_agent":  req.UserAgent(),
			})

			err := next(c)

			// 認証はルートグループで行うため、事業者IDは処理後に読む
			fields := map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"route":       c.Path(),
				"status_code": c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
				fields["request_id"] = requestID
			}
			if operatorID, ok := OperatorID(c); ok {
				fields["operator_id"] = operatorID
			}

			switch {
			case err != nil:
				logger.Error(c.Request().Context(), "HTTP request failed", err, fields)
			case c.Response().Status >= 500:
				logger.Warn(c.Request().Context(), "HTTP request completed with server error", fields)
			default:
				logger.Info(c.Request().Context(), "HTTP request completed", fields)
			}

			return err
		}
	}
}
