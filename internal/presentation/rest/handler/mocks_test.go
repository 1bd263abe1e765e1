package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	couponapp "lodging-backoffice/internal/application/coupon"
	purchaseapp "lodging-backoffice/internal/application/coupon_purchase"
	pointapp "lodging-backoffice/internal/application/point"
	"lodging-backoffice/internal/domain/coupon"
	"lodging-backoffice/internal/domain/point"
	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
	restmiddleware "lodging-backoffice/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"
)

// MockPointService モックポイントサービス
type MockPointService struct {
	mock.Mock
}

func (m *MockPointService) GetOrCreateBalance(ctx context.Context, operatorID int64) (*point.Point, error) {
	args := m.Called(ctx, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*point.Point), args.Error(1)
}

func (m *MockPointService) MonthlySummary(ctx context.Context, operatorID int64, month point.YearMonth) (*pointapp.MonthlySummary, error) {
	args := m.Called(ctx, operatorID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pointapp.MonthlySummary), args.Error(1)
}

func (m *MockPointService) ChargeConfirm(ctx context.Context, operatorID int64, req *pointapp.ChargeRequest) (*point.PointCharge, error) {
	args := m.Called(ctx, operatorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*point.PointCharge), args.Error(1)
}

func (m *MockPointService) ListCharges(ctx context.Context, operatorID int64, limit, offset int) (*pointapp.ChargePage, error) {
	args := m.Called(ctx, operatorID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pointapp.ChargePage), args.Error(1)
}

func (m *MockPointService) GetCharge(ctx context.Context, chargeID int64) (*pointapp.ChargeDetail, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pointapp.ChargeDetail), args.Error(1)
}

func (m *MockPointService) OwnsCharge(ctx context.Context, operatorID, chargeID int64) error {
	args := m.Called(ctx, operatorID, chargeID)
	return args.Error(0)
}

func (m *MockPointService) Refund(ctx context.Context, chargeID int64) (*point.PointRefund, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*point.PointRefund), args.Error(1)
}

func (m *MockPointService) ReconcileBalance(ctx context.Context, operatorID int64) (*pointapp.ReconcileResult, error) {
	args := m.Called(ctx, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pointapp.ReconcileResult), args.Error(1)
}

// MockCouponService モッククーポンサービス
type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) ListByAccommodation(ctx context.Context, accommodationID int64) (*couponapp.ManageView, error) {
	args := m.Called(ctx, accommodationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponapp.ManageView), args.Error(1)
}

func (m *MockCouponService) Modify(ctx context.Context, req *couponapp.ModifyCouponRequest) (*coupon.Coupon, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

func (m *MockCouponService) Delete(ctx context.Context, couponID int64) error {
	args := m.Called(ctx, couponID)
	return args.Error(0)
}

func (m *MockCouponService) OwnsAccommodation(ctx context.Context, operatorID, accommodationID int64) error {
	args := m.Called(ctx, operatorID, accommodationID)
	return args.Error(0)
}

func (m *MockCouponService) OwnsRoom(ctx context.Context, operatorID, roomID int64) error {
	args := m.Called(ctx, operatorID, roomID)
	return args.Error(0)
}

func (m *MockCouponService) OwnsCoupon(ctx context.Context, operatorID, couponID int64) error {
	args := m.Called(ctx, operatorID, couponID)
	return args.Error(0)
}

// MockCouponPurchaseService モッククーポン購入サービス
type MockCouponPurchaseService struct {
	mock.Mock
}

func (m *MockCouponPurchaseService) Purchase(ctx context.Context, req *purchaseapp.PurchaseRequest) ([]*coupon.Coupon, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*coupon.Coupon), args.Error(1)
}

func (m *MockCouponPurchaseService) AddOn(ctx context.Context, req *purchaseapp.AddOnRequest) ([]*coupon.Coupon, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*coupon.Coupon), args.Error(1)
}

// newTestEcho エラーハンドリングミドルウェアを設定したEchoを作成
func newTestEcho() *echo.Echo {
	e := echo.New()
	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"), otelinfra.WithOutput(io.Discard))
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
	return e
}

// withOperator 認証済みの事業者IDをコンテキストに設定する（0の場合は未認証）
func withOperator(operatorID int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if operatorID > 0 {
				c.Set(restmiddleware.OperatorIDKey, operatorID)
			}
			return next(c)
		}
	}
}

// serve リクエストを実行してレスポンスを返す
func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
