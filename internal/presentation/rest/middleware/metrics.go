package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
)

// MetricsMiddleware メトリクス記録ミドルウェア
// エラーハンドラーより外側に置くため、エラーはステータスコードで判定する
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			method := c.Request().Method
			route := c.Path()

			metrics.RecordRequest(ctx, method, route)

			err := next(c)

			metrics.RecordResponseTime(ctx, method, route, time.Since(start).Seconds())

			status := c.Response().Status
			switch {
			case err != nil || status >= 500:
				metrics.RecordError(ctx, "server_error")
			case status >= 400:
				metrics.RecordError(ctx, "client_error")
			}

			return err
		}
	}
}
