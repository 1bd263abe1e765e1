package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lodging-backoffice/internal/domain/coupon"
	"lodging-backoffice/internal/domain/discount"
	"lodging-backoffice/internal/domain/room"
	"lodging-backoffice/internal/domain/transaction"
	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
)

// CouponApplicationService クーポン在庫アプリケーションサービス
type CouponApplicationService struct {
	couponRepo coupon.CouponRepository
	roomRepo   room.RoomRepository
	txManager  transaction.TransactionManager
	policy     *discount.Policy
	logger     *otelinfra.Logger
	metrics    *otelinfra.Metrics
	tracer     trace.Tracer
	now        func() time.Time
}

// NewCouponApplicationService 新しいCouponApplicationServiceを作成
func NewCouponApplicationService(
	couponRepo coupon.CouponRepository,
	roomRepo room.RoomRepository,
	txManager transaction.TransactionManager,
	policy *discount.Policy,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *CouponApplicationService {
	return &CouponApplicationService{
		couponRepo: couponRepo,
		roomRepo:   roomRepo,
		txManager:  txManager,
		policy:     policy,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer("coupon-service"),
		now:        time.Now,
	}
}

// fail エラーをspan・ログ・メトリクスに記録して返す
func (s *CouponApplicationService) fail(ctx context.Context, span trace.Span, msg, errorType string, err error, fields map[string]interface{}) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	s.logger.Error(ctx, msg, err, fields)
	s.metrics.RecordError(ctx, errorType)
	return err
}

// invalidInfo ドメインエラーをErrInvalidCouponInfoで包む
func invalidInfo(err error) error {
	if errors.Is(err, coupon.ErrInvalidCouponInfo) {
		return err
	}
	return fmt.Errorf("%w: %w", coupon.ErrInvalidCouponInfo, err)
}

// findRoom 客室を取得（存在しなければErrInvalidCouponInfo）
func (s *CouponApplicationService) findRoom(ctx context.Context, roomID int64) (*room.Room, error) {
	rm, err := s.roomRepo.FindByID(ctx, roomID)
	if errors.Is(err, room.ErrRoomNotFound) {
		return nil, fmt.Errorf("%w: room %d not found", coupon.ErrInvalidCouponInfo, roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return rm, nil
}

// findCoupon クーポンを取得（存在しなければErrInvalidCouponInfo）
func (s *CouponApplicationService) findCoupon(ctx context.Context, couponID int64) (*coupon.Coupon, error) {
	c, err := s.couponRepo.FindByID(ctx, couponID)
	if errors.Is(err, coupon.ErrCouponNotFound) {
		return nil, fmt.Errorf("%w: coupon %d not found", coupon.ErrInvalidCouponInfo, couponID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}
	return c, nil
}

// IssueOrRestock クーポンを発行する
// 同じ客室・割引タイプ・割引値の削除されていないクーポンがあれば在庫を追加する
func (s *CouponApplicationService) IssueOrRestock(ctx context.Context, req *IssueCouponRequest) (*coupon.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "CouponApplicationService.IssueOrRestock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("room_id", req.RoomID),
		attribute.String("discount_type", req.DiscountType),
		attribute.Int64("discount_value", req.DiscountValue),
		attribute.Int("quantity", req.Quantity),
	)

	fields := map[string]interface{}{
		"room_id":        req.RoomID,
		"discount_type":  req.DiscountType,
		"discount_value": req.DiscountValue,
		"quantity":       req.Quantity,
	}
	s.logger.Info(ctx, "Issuing coupon", fields)

	dt, err := discount.NewDiscountType(req.DiscountType)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid discount type", "coupon_issue_failed", invalidInfo(err), fields)
	}
	if req.Quantity <= 0 {
		return nil, s.fail(ctx, span, "Invalid quantity", "coupon_issue_failed", invalidInfo(coupon.ErrInvalidQuantity), fields)
	}

	couponType := coupon.CouponTypeAllDays
	if req.CouponType != "" {
		couponType, err = coupon.NewCouponType(req.CouponType)
		if err != nil {
			return nil, s.fail(ctx, span, "Invalid coupon type", "coupon_issue_failed", invalidInfo(err), fields)
		}
	}
	dayLimit := req.DayLimit
	if dayLimit == 0 {
		dayLimit = coupon.UnlimitedDayLimit
	}

	var result *coupon.Coupon
	operation := "issue"
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		rm, err := s.findRoom(ctx, req.RoomID)
		if err != nil {
			return err
		}
		if err := s.policy.ValidateForPrice(dt, req.DiscountValue, rm.Price()); err != nil {
			return invalidInfo(err)
		}

		existing, err := s.couponRepo.FindActiveByRoomAndDiscount(ctx, rm.ID(), dt, req.DiscountValue)
		switch {
		case err == nil:
			if err := existing.IncreaseStock(req.Quantity); err != nil {
				return invalidInfo(err)
			}
			if err := s.couponRepo.Save(ctx, existing); err != nil {
				return fmt.Errorf("failed to save coupon: %w", err)
			}
			result = existing
			operation = "restock"
			return nil
		case errors.Is(err, coupon.ErrCouponNotFound):
			endDate := req.EndDate
			if endDate.IsZero() {
				endDate = coupon.DefaultEndDate(s.now())
			}
			c, err := coupon.NewCoupon(rm.ID(), dt, req.DiscountValue, req.Quantity, couponType, dayLimit, endDate)
			if err != nil {
				return invalidInfo(err)
			}
			if err := s.couponRepo.Create(ctx, c); err != nil {
				return fmt.Errorf("failed to create coupon: %w", err)
			}
			result = c
			return nil
		default:
			return fmt.Errorf("failed to find coupon: %w", err)
		}
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to issue coupon", "coupon_issue_failed", err, fields)
	}

	s.metrics.RecordCouponStock(ctx, operation, req.Quantity)
	span.SetAttributes(
		attribute.Int64("coupon_id", result.ID()),
		attribute.Int("stock", result.Stock()),
	)
	span.SetStatus(otelcodes.Ok, "coupon issued")
	s.logger.Info(ctx, "Coupon issued", map[string]interface{}{
		"coupon_id": result.ID(),
		"operation": operation,
		"stock":     result.Stock(),
	})

	return result, nil
}

// Restock 既存クーポンの在庫を追加
func (s *CouponApplicationService) Restock(ctx context.Context, couponID int64, quantity int) (*coupon.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "CouponApplicationService.Restock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("coupon_id", couponID),
		attribute.Int("quantity", quantity),
	)

	fields := map[string]interface{}{
		"coupon_id": couponID,
		"quantity":  quantity,
	}
	s.logger.Info(ctx, "Restocking coupon", fields)

	var result *coupon.Coupon
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.findCoupon(ctx, couponID)
		if err != nil {
			return err
		}
		if err := c.IncreaseStock(quantity); err != nil {
			return invalidInfo(err)
		}
		if err := s.couponRepo.Save(ctx, c); err != nil {
			return fmt.Errorf("failed to save coupon: %w", err)
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to restock coupon", "coupon_restock_failed", err, fields)
	}

	s.metrics.RecordCouponStock(ctx, "restock", quantity)
	span.SetStatus(otelcodes.Ok, "coupon restocked")
	return result, nil
}

// Modify クーポンの在庫以外の項目を更新
func (s *CouponApplicationService) Modify(ctx context.Context, req *ModifyCouponRequest) (*coupon.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "CouponApplicationService.Modify")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("coupon_id", req.CouponID),
		attribute.String("status", req.Status),
		attribute.String("discount_type", req.DiscountType),
		attribute.Int64("discount_value", req.DiscountValue),
	)

	fields := map[string]interface{}{
		"coupon_id":      req.CouponID,
		"status":         req.Status,
		"discount_type":  req.DiscountType,
		"discount_value": req.DiscountValue,
	}
	s.logger.Info(ctx, "Modifying coupon", fields)

	status, err := coupon.NewCouponStatus(req.Status)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid coupon status", "coupon_modify_failed", invalidInfo(err), fields)
	}
	dt, err := discount.NewDiscountType(req.DiscountType)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid discount type", "coupon_modify_failed", invalidInfo(err), fields)
	}
	couponType, err := coupon.NewCouponType(req.CouponType)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid coupon type", "coupon_modify_failed", invalidInfo(err), fields)
	}
	if req.EndDate.IsZero() {
		err := fmt.Errorf("%w: end date is required", coupon.ErrInvalidCouponInfo)
		return nil, s.fail(ctx, span, "Invalid end date", "coupon_modify_failed", err, fields)
	}

	var result *coupon.Coupon
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.findCoupon(ctx, req.CouponID)
		if err != nil {
			return err
		}
		rm, err := s.findRoom(ctx, c.RoomID())
		if err != nil {
			return err
		}
		if err := s.policy.ValidateForPrice(dt, req.DiscountValue, rm.Price()); err != nil {
			return invalidInfo(err)
		}
		if err := c.Modify(status, dt, req.DiscountValue, couponType, req.DayLimit, req.EndDate); err != nil {
			return invalidInfo(err)
		}
		if err := s.couponRepo.Save(ctx, c); err != nil {
			return fmt.Errorf("failed to save coupon: %w", err)
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to modify coupon", "coupon_modify_failed", err, fields)
	}

	span.SetStatus(otelcodes.Ok, "coupon modified")
	return result, nil
}

// Delete クーポンを論理削除（削除済みでもエラーにしない）
func (s *CouponApplicationService) Delete(ctx context.Context, couponID int64) error {
	ctx, span := s.tracer.Start(ctx, "CouponApplicationService.Delete")
	defer span.End()

	span.SetAttributes(attribute.Int64("coupon_id", couponID))

	fields := map[string]interface{}{"coupon_id": couponID}
	s.logger.Info(ctx, "Deleting coupon", fields)

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.findCoupon(ctx, couponID)
		if err != nil {
			return err
		}
		if c.IsDeleted() {
			return nil
		}
		c.Delete()
		if err := s.couponRepo.Save(ctx, c); err != nil {
			return fmt.Errorf("failed to save coupon: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, span, "Failed to delete coupon", "coupon_delete_failed", err, fields)
	}

	span.SetStatus(otelcodes.Ok, "coupon deleted")
	return nil
}

// ConsumeStock 予約時にクーポン在庫を消費
func (s *CouponApplicationService) ConsumeStock(ctx context.Context, couponID int64, quantity int) (*coupon.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "CouponApplicationService.ConsumeStock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("coupon_id", couponID),
		attribute.Int("quantity", quantity),
	)

	fields := map[string]interface{}{
		"coupon_id": couponID,
		"quantity":  quantity,
	}
	s.logger.Info(ctx, "Consuming coupon stock", fields)

	var result *coupon.Coupon
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.findCoupon(ctx, couponID)
		if err != nil {
			return err
		}
		if err := c.DecreaseStock(quantity); err != nil {
			if errors.Is(err, coupon.ErrInsufficientCouponStock) {
				return fmt.Errorf("%w: coupon %d has %d", err, couponID, c.Stock())
			}
			return invalidInfo(err)
		}
		if err := s.couponRepo.Save(ctx, c); err != nil {
			return fmt.Errorf("failed to save coupon: %w", err)
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to consume coupon stock", "coupon_consume_failed", err, fields)
	}

	s.metrics.RecordCouponStock(ctx, "consume", quantity)
	span.SetAttributes(attribute.String("status", result.Status().String()))
	span.SetStatus(otelcodes.Ok, "coupon stock consumed")
	return result, nil
}

// ListByAccommodation 宿泊施設の客室ごとのクーポン一覧を取得
func (s *CouponApplicationService) ListByAccommodation(ctx context.Context, accommodationID int64) (*ManageView, error) {
	ctx, span := s.tracer.Start(ctx, "CouponApplicationService.ListByAccommodation")
	defer span.End()

	span.SetAttributes(attribute.Int64("accommodation_id", accommodationID))

	fields := map[string]interface{}{"accommodation_id": accommodationID}

	rooms, err := s.roomRepo.FindByAccommodationID(ctx, accommodationID)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to find rooms", "coupon_list_failed", fmt.Errorf("failed to find rooms: %w", err), fields)
	}

	view := &ManageView{
		AccommodationID: accommodationID,
		Rooms:           make([]RoomCoupons, 0, len(rooms)),
	}
	if len(rooms) == 0 {
		span.SetStatus(otelcodes.Ok, "no rooms")
		return view, nil
	}
	view.AccommodationName = rooms[0].AccommodationName()

	roomIDs := make([]int64, len(rooms))
	for i, rm := range rooms {
		roomIDs[i] = rm.ID()
	}

	coupons, err := s.couponRepo.FindActiveByRoomIDs(ctx, roomIDs)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to find coupons", "coupon_list_failed", fmt.Errorf("failed to find coupons: %w", err), fields)
	}

	byRoom := make(map[int64][]*coupon.Coupon, len(rooms))
	for _, c := range coupons {
		byRoom[c.RoomID()] = append(byRoom[c.RoomID()], c)
	}

	for _, rm := range rooms {
		rc := RoomCoupons{
			RoomID:    rm.ID(),
			RoomName:  rm.Name(),
			RoomPrice: rm.Price(),
			Coupons:   make([]CouponView, 0, len(byRoom[rm.ID()])),
		}
		for _, c := range byRoom[rm.ID()] {
			// 客室料金の変更で割引後価格が成立しなくなった場合は0
			applied, err := s.policy.Price(c.DiscountType(), rm.Price(), c.DiscountValue())
			if err != nil {
				applied = 0
			}
			rc.Coupons = append(rc.Coupons, CouponView{
				CouponID:      c.ID(),
				Status:        c.Status().String(),
				DiscountType:  c.DiscountType().String(),
				DiscountValue: c.DiscountValue(),
				CouponName:    s.policy.DisplayName(discount.NameList, c.DiscountType(), c.DiscountValue()),
				AppliedPrice:  applied,
				Stock:         c.Stock(),
				CouponType:    c.CouponType().String(),
				DayLimit:      c.DayLimit(),
				EndDate:       c.EndDate(),
			})
			if c.EndDate().After(view.ExpiryDate) {
				view.ExpiryDate = c.EndDate()
			}
		}
		view.Rooms = append(view.Rooms, rc)
	}

	span.SetAttributes(
		attribute.Int("room_count", len(view.Rooms)),
		attribute.Int("coupon_count", len(coupons)),
	)
	span.SetStatus(otelcodes.Ok, "coupons listed")
	return view, nil
}

// notOwned 他の事業者の宿泊施設は存在しないものとして扱う
func notOwned(accommodationID, operatorID int64) error {
	return fmt.Errorf("%w: accommodation %d does not belong to operator %d",
		room.ErrAccommodationNotFound, accommodationID, operatorID)
}

// ownsAccommodation 宿泊施設の所有者を確認
func (s *CouponApplicationService) ownsAccommodation(ctx context.Context, operatorID, accommodationID int64) error {
	owned, err := s.roomRepo.AccommodationOwnedBy(ctx, accommodationID, operatorID)
	if err != nil {
		return fmt.Errorf("failed to check accommodation owner: %w", err)
	}
	if !owned {
		return notOwned(accommodationID, operatorID)
	}
	return nil
}

// ownsRoom 客室が属する宿泊施設の所有者を確認（存在しない客室も同じエラー）
func (s *CouponApplicationService) ownsRoom(ctx context.Context, operatorID, roomID int64) error {
	rm, err := s.roomRepo.FindByID(ctx, roomID)
	if errors.Is(err, room.ErrRoomNotFound) {
		return fmt.Errorf("%w: room %d not found", room.ErrAccommodationNotFound, roomID)
	}
	if err != nil {
		return fmt.Errorf("failed to find room: %w", err)
	}
	return s.ownsAccommodation(ctx, operatorID, rm.AccommodationID())
}

// ownershipSpan 所有者確認のspanを閉じる
func ownershipSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}
	span.SetStatus(otelcodes.Ok, "owner verified")
	return nil
}

// OwnsAccommodation 宿泊施設が事業者のものか確認（他の事業者のものはErrAccommodationNotFound）
func (s *CouponApplicationService) OwnsAccommodation(ctx context.Context, operatorID, accommodationID int64) error {
	ctx, span := s.tracer.Start(ctx, "CouponApplicationService.OwnsAccommodation")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("operator_id", operatorID),
		attribute.Int64("accommodation_id", accommodationID),
	)
	return ownershipSpan(span, s.ownsAccommodation(ctx, operatorID, accommodationID))
}

// OwnsRoom 客室が事業者の宿泊施設のものか確認
func (s *CouponApplicationService) OwnsRoom(ctx context.Context, operatorID, roomID int64) error {
	ctx, span := s.tracer.Start(ctx, "CouponApplicationService.OwnsRoom")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("operator_id", operatorID),
		attribute.Int64("room_id", roomID),
	)
	return ownershipSpan(span, s.ownsRoom(ctx, operatorID, roomID))
}

// OwnsCoupon クーポンが事業者の宿泊施設のものか確認
func (s *CouponApplicationService) OwnsCoupon(ctx context.Context, operatorID, couponID int64) error {
	ctx, span := s.tracer.Start(ctx, "CouponApplicationService.OwnsCoupon")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("operator_id", operatorID),
		attribute.Int64("coupon_id", couponID),
	)

	c, err := s.findCoupon(ctx, couponID)
	if err != nil {
		return ownershipSpan(span, err)
	}
	return ownershipSpan(span, s.ownsRoom(ctx, operatorID, c.RoomID()))
}
