package rest

import (
	"context"
	"net/http"

	"lodging-backoffice/internal/infrastructure/config"
	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
	"lodging-backoffice/internal/presentation/rest/handler"
	restmiddleware "lodging-backoffice/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HealthChecker 依存先の疎通確認
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Router REST APIルーター
type Router struct {
	echo          *echo.Echo
	pointHandler  *handler.PointHandler
	couponHandler *handler.CouponHandler
	authHandler   *handler.AuthHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	pointService handler.PointService,
	couponService handler.CouponService,
	purchaseService handler.CouponPurchaseService,
	authService handler.TokenIssuer,
	health HealthChecker,
) *Router {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// ミドルウェアの設定
	setupMiddleware(e, logger, metrics)

	// ハンドラーの作成
	pointHandler := handler.NewPointHandler(pointService)
	couponHandler := handler.NewCouponHandler(couponService, purchaseService)
	authHandler := handler.NewAuthHandler(authService)

	// ルーティングの設定
	setupRoutes(e, cfg, logger, health, pointHandler, couponHandler, authHandler)

	return &Router{
		echo:          e,
		pointHandler:  pointHandler,
		couponHandler: couponHandler,
		authHandler:   authHandler,
	}
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // 本番環境では適切に設定
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-API-Key"},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// メトリクスミドルウェア（エラーハンドリング後のステータスコードで集計）
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *otelinfra.Logger,
	health HealthChecker,
	pointHandler *handler.PointHandler,
	couponHandler *handler.CouponHandler,
	authHandler *handler.AuthHandler,
) {
	// API v1グループ
	api := e.Group("/api/v1")

	// 認証が必要なエンドポイント
	authGroup := api.Group("", restmiddleware.AuthMiddleware(&cfg.JWT, logger))

	// ポイント関連エンドポイント
	authGroup.GET("/points/balance", pointHandler.GetBalance)
	authGroup.GET("/points/summary", pointHandler.GetMonthlySummary)
	authGroup.POST("/points/charges", pointHandler.ConfirmCharge)
	authGroup.GET("/points/charges", pointHandler.ListCharges)
	authGroup.GET("/points/charges/:charge_id", pointHandler.GetCharge)
	authGroup.POST("/points/charges/:charge_id/refund", pointHandler.RefundCharge)

	// クーポン関連エンドポイント
	authGroup.GET("/accommodations/:accommodation_id/coupons", couponHandler.ListByAccommodation)
	authGroup.POST("/coupons", couponHandler.Purchase)
	authGroup.PATCH("/coupons/stock", couponHandler.AddOn)
	authGroup.PUT("/coupons/:coupon_id", couponHandler.Modify)
	authGroup.DELETE("/coupons/:coupon_id", couponHandler.Delete)

	// 管理API（APIキー認証）
	adminGroup := api.Group("/admin", restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))
	adminGroup.POST("/operators/:operator_id/token", authHandler.IssueOperatorToken)
	adminGroup.POST("/operators/:operator_id/points/reconcile", pointHandler.ReconcileBalance)

	// ヘルスチェックエンドポイント（認証不要）
	e.GET("/health", func(c echo.Context) error {
		if health != nil {
			if err := health.HealthCheck(c.Request().Context()); err != nil {
				logger.Warn(c.Request().Context(), "Health check failed", map[string]interface{}{
					"error": err.Error(),
				})
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
