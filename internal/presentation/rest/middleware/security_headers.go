package middleware

import (
	"github.com/labstack/echo/v4"
)

// apiContentSecurityPolicy JSONのみを返すAPI向けのCSP
const apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeadersMiddleware セキュリティヘッダーを設定するミドルウェア
func SecurityHeadersMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			// XSS保護
			h.Set("X-XSS-Protection", "1; mode=block")

			// クリックジャッキング保護
			h.Set("X-Frame-Options", "DENY")

			// MIMEタイプスニッフィング保護
			h.Set("X-Content-Type-Options", "nosniff")

			h.Set("Content-Security-Policy", apiContentSecurityPolicy)

			// 残高や決済情報をキャッシュさせない
			h.Set("Cache-Control", "no-store")

			// Strict-Transport-Security（HTTPS使用時）
			if c.Scheme() == "https" {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			return next(c)
		}
	}
}
