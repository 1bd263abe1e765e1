package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"lodging-backoffice/internal/application/coupon_purchase"
	"lodging-backoffice/internal/domain/coupon"
	"lodging-backoffice/internal/domain/discount"
	"lodging-backoffice/internal/domain/payment_gateway"
	"lodging-backoffice/internal/domain/point"
	"lodging-backoffice/internal/domain/room"
	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// エラーコード（既存クライアントとの互換のため数値を維持）
const (
	CodeInvalidCouponInfo       = "5000"
	CodeInsufficientCouponStock = "5001"
	CodeGatewayError            = "6000"
	CodePaymentAuthorization    = "6001"
	CodeWrongRefundInfo         = "6002"
	CodePointNotFound           = "6003"
	CodeInsufficientPoints      = "6004"
)

// errorRule ドメインエラーとHTTPレスポンスの対応
type errorRule struct {
	target error
	status int
	name   string
	code   string
}

// errorRules 上から順に判定する（ラップされたエラーは内側より外側の規則を優先）
var errorRules = []errorRule{
	{coupon.ErrInsufficientCouponStock, http.StatusConflict, "insufficient_coupon_stock", CodeInsufficientCouponStock},
	{coupon.ErrConcurrentModification, http.StatusConflict, "concurrent_modification", ""},
	{point.ErrConcurrentModification, http.StatusConflict, "concurrent_modification", ""},
	{point.ErrInsufficientPoints, http.StatusConflict, "insufficient_points", CodeInsufficientPoints},
	{point.ErrPointNotFound, http.StatusNotFound, "point_not_found", CodePointNotFound},
	{point.ErrRefundNotFound, http.StatusNotFound, "point_not_found", CodePointNotFound},
	{room.ErrAccommodationNotFound, http.StatusNotFound, "accommodation_not_found", CodeInvalidCouponInfo},
	{payment_gateway.ErrGatewayError, http.StatusBadGateway, "payment_gateway_error", CodeGatewayError},
	{point.ErrPaymentAuthorizationFailed, http.StatusBadRequest, "payment_authorization_failed", CodePaymentAuthorization},
	{point.ErrWrongRefundInfo, http.StatusBadRequest, "wrong_refund_info", CodeWrongRefundInfo},
	{coupon.ErrInvalidCouponInfo, http.StatusBadRequest, "invalid_coupon_info", CodeInvalidCouponInfo},
	{discount.ErrInvalidDiscount, http.StatusBadRequest, "invalid_coupon_info", CodeInvalidCouponInfo},
	{coupon.ErrCouponDeleted, http.StatusBadRequest, "invalid_coupon_info", CodeInvalidCouponInfo},
	{coupon.ErrCouponNotFound, http.StatusBadRequest, "invalid_coupon_info", CodeInvalidCouponInfo},
	{coupon.ErrInvalidQuantity, http.StatusBadRequest, "invalid_coupon_info", CodeInvalidCouponInfo},
	{coupon_purchase.ErrInvalidPurchase, http.StatusBadRequest, "invalid_purchase", ""},
	{point.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount", ""},
	{point.ErrInvalidOperatorID, http.StatusBadRequest, "invalid_operator_id", ""},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	for _, rule := range errorRules {
		if !errors.Is(err, rule.target) {
			continue
		}
		fields := map[string]interface{}{
			"error":       err.Error(),
			"status_code": rule.status,
			"path":        c.Request().URL.Path,
		}
		if rule.status >= http.StatusInternalServerError {
			logger.Error(ctx, "Upstream failure", err, fields)
		} else {
			logger.Warn(ctx, "Request rejected", fields)
		}
		return c.JSON(rule.status, ErrorResponse{
			Error:   rule.name,
			Message: err.Error(),
			Code:    rule.code,
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
