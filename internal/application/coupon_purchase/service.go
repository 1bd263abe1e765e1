package coupon_purchase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	couponapp "lodging-backoffice/internal/application/coupon"
	"lodging-backoffice/internal/domain/coupon"
	"lodging-backoffice/internal/domain/point"
	"lodging-backoffice/internal/domain/transaction"
	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
)

// ErrInvalidPurchase 購入内容が不正
var ErrInvalidPurchase = errors.New("invalid purchase")

// PurchaseDescription 使用履歴に記録する注文名
const PurchaseDescription = "coupon purchase"

const defaultMaxRetries = 3

// CouponInventory 購入で使うクーポン在庫操作
type CouponInventory interface {
	IssueOrRestock(ctx context.Context, req *couponapp.IssueCouponRequest) (*coupon.Coupon, error)
	Restock(ctx context.Context, couponID int64, quantity int) (*coupon.Coupon, error)
}

// PointLedger 購入で使うポイント操作
type PointLedger interface {
	GetOrCreateBalance(ctx context.Context, operatorID int64) (*point.Point, error)
	Debit(ctx context.Context, operatorID, amount int64, description string) (*point.PointUsage, error)
}

// CouponPurchaseApplicationService ポイントでクーポンを購入するアプリケーションサービス
type CouponPurchaseApplicationService struct {
	coupons    CouponInventory
	points     PointLedger
	txManager  transaction.TransactionManager
	logger     *otelinfra.Logger
	metrics    *otelinfra.Metrics
	tracer     trace.Tracer
	maxRetries int
	sleep      func(time.Duration)
}

// NewCouponPurchaseApplicationService 新しいCouponPurchaseApplicationServiceを作成
func NewCouponPurchaseApplicationService(
	coupons CouponInventory,
	points PointLedger,
	txManager transaction.TransactionManager,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *CouponPurchaseApplicationService {
	return &CouponPurchaseApplicationService{
		coupons:    coupons,
		points:     points,
		txManager:  txManager,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer("coupon-purchase-service"),
		maxRetries: defaultMaxRetries,
		sleep:      time.Sleep,
	}
}

// isConflict 楽観的ロックの競合か
func isConflict(err error) bool {
	return errors.Is(err, coupon.ErrConcurrentModification) || errors.Is(err, point.ErrConcurrentModification)
}

// withRetry 楽観的ロックの競合時にトランザクション全体をやり直す
func (s *CouponPurchaseApplicationService) withRetry(ctx context.Context, span trace.Span, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 10 * time.Millisecond
			s.sleep(backoff)
			span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", attempt+1)))
		}

		err = s.txManager.WithTransaction(ctx, fn)
		if err == nil || !isConflict(err) {
			return err
		}
		s.logger.Warn(ctx, "Concurrent modification, retrying purchase", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}
	return fmt.Errorf("failed after %d attempts: %w", s.maxRetries, err)
}

// fail エラーをspan・ログ・メトリクスに記録して返す
func (s *CouponPurchaseApplicationService) fail(ctx context.Context, span trace.Span, msg, errorType string, err error, fields map[string]interface{}) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	s.logger.Error(ctx, msg, err, fields)
	s.metrics.RecordError(ctx, errorType)
	return err
}

// checkBalance 残高が購入額に足りるか確認
func (s *CouponPurchaseApplicationService) checkBalance(ctx context.Context, operatorID, totalCost int64) error {
	p, err := s.points.GetOrCreateBalance(ctx, operatorID)
	if err != nil {
		return err
	}
	if p.Balance() < totalCost {
		return fmt.Errorf("%w: balance %d, cost %d", point.ErrInsufficientPoints, p.Balance(), totalCost)
	}
	return nil
}

// Purchase ポイントでクーポンを購入（発行または在庫追加）
// 全ての明細と引き落としは1つのトランザクションで行い、どれかが失敗すれば全て取り消す
func (s *CouponPurchaseApplicationService) Purchase(ctx context.Context, req *PurchaseRequest) ([]*coupon.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "CouponPurchaseApplicationService.Purchase")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("operator_id", req.OperatorID),
		attribute.Int64("total_cost", req.TotalCost),
		attribute.Int("item_count", len(req.Items)),
	)

	fields := map[string]interface{}{
		"operator_id": req.OperatorID,
		"total_cost":  req.TotalCost,
		"item_count":  len(req.Items),
	}
	s.logger.Info(ctx, "Purchasing coupons", fields)

	if len(req.Items) == 0 || req.TotalCost <= 0 {
		err := fmt.Errorf("%w: items=%d, total cost=%d", ErrInvalidPurchase, len(req.Items), req.TotalCost)
		return nil, s.fail(ctx, span, "Invalid purchase request", "purchase_failed", err, fields)
	}

	var result []*coupon.Coupon
	err := s.withRetry(ctx, span, func(ctx context.Context) error {
		result = make([]*coupon.Coupon, 0, len(req.Items))

		if err := s.checkBalance(ctx, req.OperatorID, req.TotalCost); err != nil {
			return err
		}

		for i, item := range req.Items {
			c, err := s.coupons.IssueOrRestock(ctx, &couponapp.IssueCouponRequest{
				RoomID:        item.RoomID,
				DiscountType:  item.DiscountType,
				DiscountValue: item.DiscountValue,
				Quantity:      item.Quantity,
				CouponType:    item.CouponType,
				DayLimit:      item.DayLimit,
				EndDate:       item.EndDate,
			})
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			result = append(result, c)
		}

		if _, err := s.points.Debit(ctx, req.OperatorID, req.TotalCost, PurchaseDescription); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to purchase coupons", "purchase_failed", err, fields)
	}

	span.SetStatus(otelcodes.Ok, "coupons purchased")
	s.logger.Info(ctx, "Coupons purchased", map[string]interface{}{
		"operator_id":  req.OperatorID,
		"total_cost":   req.TotalCost,
		"coupon_count": len(result),
	})

	return result, nil
}

// AddOn 既存クーポンの在庫をポイントで追加購入
func (s *CouponPurchaseApplicationService) AddOn(ctx context.Context, req *AddOnRequest) ([]*coupon.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "CouponPurchaseApplicationService.AddOn")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("operator_id", req.OperatorID),
		attribute.Int64("total_cost", req.TotalCost),
		attribute.Int("item_count", len(req.Items)),
	)

	fields := map[string]interface{}{
		"operator_id": req.OperatorID,
		"total_cost":  req.TotalCost,
		"item_count":  len(req.Items),
	}
	s.logger.Info(ctx, "Adding coupon stock", fields)

	if len(req.Items) == 0 || req.TotalCost <= 0 {
		err := fmt.Errorf("%w: items=%d, total cost=%d", ErrInvalidPurchase, len(req.Items), req.TotalCost)
		return nil, s.fail(ctx, span, "Invalid add-on request", "addon_failed", err, fields)
	}

	var result []*coupon.Coupon
	err := s.withRetry(ctx, span, func(ctx context.Context) error {
		result = make([]*coupon.Coupon, 0, len(req.Items))

		if err := s.checkBalance(ctx, req.OperatorID, req.TotalCost); err != nil {
			return err
		}

		for _, item := range req.Items {
			c, err := s.coupons.Restock(ctx, item.CouponID, item.Quantity)
			if err != nil {
				return fmt.Errorf("coupon %d: %w", item.CouponID, err)
			}
			result = append(result, c)
		}

		if _, err := s.points.Debit(ctx, req.OperatorID, req.TotalCost, PurchaseDescription); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to add coupon stock", "addon_failed", err, fields)
	}

	span.SetStatus(otelcodes.Ok, "coupon stock added")
	return result, nil
}
