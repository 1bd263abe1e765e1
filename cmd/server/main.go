package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authapp "lodging-backoffice/internal/application/auth"
	couponapp "lodging-backoffice/internal/application/coupon"
	purchaseapp "lodging-backoffice/internal/application/coupon_purchase"
	pointapp "lodging-backoffice/internal/application/point"
	"lodging-backoffice/internal/domain/discount"
	"lodging-backoffice/internal/infrastructure/config"
	"lodging-backoffice/internal/infrastructure/gateway/toss"
	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
	"lodging-backoffice/internal/infrastructure/persistence/mysql"
	"lodging-backoffice/internal/presentation/rest"

	"github.com/rs/zerolog/log"
)

const serviceName = "lodging-backoffice"

func main() {
	ctx := context.Background()

	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(ctx, &cfg.OpenTelemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown tracer")
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(ctx, &cfg.OpenTelemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize meter")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown meter")
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer(serviceName)
	logger := otelinfra.NewLogger(tracer, otelinfra.WithLevel(cfg.Log.Level))
	metrics, err := otelinfra.NewMetrics(serviceName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create metrics")
	}

	// データベース接続の初期化
	db, err := mysql.NewDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// リポジトリの初期化
	roomRepo := mysql.NewRoomRepository(db)
	couponRepo := mysql.NewCouponRepository(db)
	pointRepo := mysql.NewPointRepository(db)
	chargeRepo := mysql.NewPointChargeRepository(db)
	usageRepo := mysql.NewPointUsageRepository(db)
	refundRepo := mysql.NewPointRefundRepository(db)

	// トランザクションマネージャーの初期化
	txManager := mysql.NewTransactionManager(db)

	// 決済代行クライアントの初期化
	gateway := toss.NewClient(&cfg.PaymentGateway, metrics)

	// 割引ポリシーの初期化
	policy := discount.NewPolicy(discount.Restrictions{
		MinPrice: cfg.Discount.FlatMin,
		MaxPrice: cfg.Discount.FlatMax,
		MinRate:  cfg.Discount.RateMin,
		MaxRate:  cfg.Discount.RateMax,
	})

	// アプリケーションサービスの初期化
	couponAppService := couponapp.NewCouponApplicationService(
		couponRepo,
		roomRepo,
		txManager,
		policy,
		logger,
		metrics,
	)

	pointAppService := pointapp.NewPointApplicationService(
		pointRepo,
		chargeRepo,
		usageRepo,
		refundRepo,
		gateway,
		txManager,
		cfg.PaymentGateway.CancelReason,
		logger,
		metrics,
	)

	purchaseAppService := purchaseapp.NewCouponPurchaseApplicationService(
		couponAppService,
		pointAppService,
		txManager,
		logger,
		metrics,
	)

	authAppService := authapp.NewAuthApplicationService(&cfg.JWT, logger)

	// REST APIルーターの初期化
	router := rest.NewRouter(
		cfg,
		logger,
		metrics,
		pointAppService,
		couponAppService,
		purchaseAppService,
		authAppService,
		db,
	)

	// サーバーアドレスの設定
	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		logger.Info(ctx, "REST API server starting", map[string]interface{}{
			"address":     address,
			"environment": cfg.Environment,
		})
		if err := router.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "REST API server error", err, nil)
			quit <- syscall.SIGTERM
		}
	}()

	// シグナルを待機
	<-quit
	logger.Info(ctx, "Shutting down server", nil)

	// グレースフルシャットダウン
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error shutting down REST API server", err, nil)
	}

	logger.Info(ctx, "Server stopped", nil)
}
