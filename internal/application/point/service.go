package point

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lodging-backoffice/internal/domain/payment_gateway"
	"lodging-backoffice/internal/domain/point"
	"lodging-backoffice/internal/domain/transaction"
	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
)

// DefaultPaymentName 決済手段名の既定値
const DefaultPaymentName = "토스페이먼츠"

// DefaultPageSize 充電履歴の既定の件数
const DefaultPageSize = 20

// settleAttempts 決済代行の処理後に残高保存を再試行する回数
const settleAttempts = 3

// PointApplicationService ポイント台帳アプリケーションサービス
type PointApplicationService struct {
	pointRepo    point.PointRepository
	chargeRepo   point.PointChargeRepository
	usageRepo    point.PointUsageRepository
	refundRepo   point.PointRefundRepository
	gateway      payment_gateway.Client
	txManager    transaction.TransactionManager
	cancelReason string
	logger       *otelinfra.Logger
	metrics      *otelinfra.Metrics
	tracer       trace.Tracer
	now          func() time.Time
	loc          *time.Location
}

// NewPointApplicationService 新しいPointApplicationServiceを作成
func NewPointApplicationService(
	pointRepo point.PointRepository,
	chargeRepo point.PointChargeRepository,
	usageRepo point.PointUsageRepository,
	refundRepo point.PointRefundRepository,
	gateway payment_gateway.Client,
	txManager transaction.TransactionManager,
	cancelReason string,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *PointApplicationService {
	return &PointApplicationService{
		pointRepo:    pointRepo,
		chargeRepo:   chargeRepo,
		usageRepo:    usageRepo,
		refundRepo:   refundRepo,
		gateway:      gateway,
		txManager:    txManager,
		cancelReason: cancelReason,
		logger:       logger,
		metrics:      metrics,
		tracer:       otel.Tracer("point-service"),
		now:          time.Now,
		loc:          time.Local,
	}
}

// fail エラーをspan・ログ・メトリクスに記録して返す
func (s *PointApplicationService) fail(ctx context.Context, span trace.Span, msg, errorType string, err error, fields map[string]interface{}) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	s.logger.Error(ctx, msg, err, fields)
	s.metrics.RecordError(ctx, errorType)
	return err
}

// getOrCreate 事業者のポイントを取得し、なければ残高0で作成
func (s *PointApplicationService) getOrCreate(ctx context.Context, operatorID int64) (*point.Point, error) {
	p, err := s.pointRepo.FindByOperatorID(ctx, operatorID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, point.ErrPointNotFound) {
		return nil, fmt.Errorf("failed to find point: %w", err)
	}

	p, err = point.NewPoint(operatorID)
	if err != nil {
		return nil, err
	}
	if err := s.pointRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create point: %w", err)
	}
	s.logger.Info(ctx, "Point created", map[string]interface{}{
		"operator_id": operatorID,
		"point_id":    p.ID(),
	})
	return p, nil
}

// lockOrCreate 事業者のポイントを行ロック付きで取得し、なければ残高0で作成
func (s *PointApplicationService) lockOrCreate(ctx context.Context, operatorID int64) (*point.Point, error) {
	p, err := s.pointRepo.FindByOperatorIDForUpdate(ctx, operatorID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, point.ErrPointNotFound) {
		return nil, fmt.Errorf("failed to lock point: %w", err)
	}
	return s.getOrCreate(ctx, operatorID)
}

// settle 決済代行の処理が済んだ後の残高保存。
// 競合した場合は決済代行を呼び直さず、ポイントを読み直して再計算だけをやり直す
func (s *PointApplicationService) settle(ctx context.Context, p *point.Point) (*point.Point, error) {
	for attempt := 1; ; attempt++ {
		_, err := s.recompute(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, point.ErrConcurrentModification) || attempt >= settleAttempts {
			return nil, err
		}

		s.logger.Warn(ctx, "Point modified concurrently, recomputing balance", map[string]interface{}{
			"point_id": p.ID(),
			"attempt":  attempt,
		})
		p, err = s.pointRepo.FindByIDForUpdate(ctx, p.ID())
		if err != nil {
			return nil, fmt.Errorf("failed to reload point: %w", err)
		}
	}
}

// recompute 履歴から残高を再計算して保存
func (s *PointApplicationService) recompute(ctx context.Context, p *point.Point) (int64, error) {
	charges, err := s.chargeRepo.FindAllByPointID(ctx, p.ID())
	if err != nil {
		return 0, fmt.Errorf("failed to find charges: %w", err)
	}
	usages, err := s.usageRepo.FindAllByPointID(ctx, p.ID())
	if err != nil {
		return 0, fmt.Errorf("failed to find usages: %w", err)
	}

	before := p.Balance()
	if err := p.ApplyRecomputedBalance(point.RecomputeBalance(charges, usages)); err != nil {
		return 0, fmt.Errorf("failed to apply balance for point %d: %w", p.ID(), err)
	}
	if p.Balance() == before {
		return 0, nil
	}
	if err := s.pointRepo.Save(ctx, p); err != nil {
		return 0, fmt.Errorf("failed to save point: %w", err)
	}
	return p.Balance() - before, nil
}

// GetOrCreateBalance 事業者のポイントを取得（なければ作成）
func (s *PointApplicationService) GetOrCreateBalance(ctx context.Context, operatorID int64) (*point.Point, error) {
	ctx, span := s.tracer.Start(ctx, "PointApplicationService.GetOrCreateBalance")
	defer span.End()

	span.SetAttributes(attribute.Int64("operator_id", operatorID))

	var result *point.Point
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.getOrCreate(ctx, operatorID)
		if err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to get balance", "balance_failed", err, map[string]interface{}{
			"operator_id": operatorID,
		})
	}

	s.metrics.RecordPointBalance(ctx, "balance", result.Balance())
	span.SetAttributes(attribute.Int64("balance", result.Balance()))
	span.SetStatus(otelcodes.Ok, "balance found")
	return result, nil
}

// ChargeConfirm 決済代行で承認してポイントを充電
func (s *PointApplicationService) ChargeConfirm(ctx context.Context, operatorID int64, req *ChargeRequest) (*point.PointCharge, error) {
	ctx, span := s.tracer.Start(ctx, "PointApplicationService.ChargeConfirm")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("operator_id", operatorID),
		attribute.String("payment_key", req.PaymentKey),
		attribute.String("order_id", req.OrderID),
		attribute.Int64("amount", req.Amount),
	)

	fields := map[string]interface{}{
		"operator_id": operatorID,
		"payment_key": req.PaymentKey,
		"order_id":    req.OrderID,
		"amount":      req.Amount,
	}
	s.logger.Info(ctx, "Confirming point charge", fields)

	if req.Amount <= 0 {
		return nil, s.fail(ctx, span, "Invalid charge amount", "charge_failed", point.ErrInvalidAmount, fields)
	}
	if req.PaymentKey == "" || req.OrderID == "" {
		err := fmt.Errorf("%w: payment key and order id are required", point.ErrPaymentAuthorizationFailed)
		return nil, s.fail(ctx, span, "Invalid charge request", "charge_failed", err, fields)
	}
	paymentName := req.PaymentName
	if paymentName == "" {
		paymentName = DefaultPaymentName
	}

	var result *point.PointCharge
	var balance int64
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.lockOrCreate(ctx, operatorID)
		if err != nil {
			return err
		}

		// 同じ決済キーの再送は既存の充電を返す
		existing, err := s.chargeRepo.FindByPaymentKey(ctx, req.PaymentKey)
		switch {
		case err == nil:
			if existing.PointID() != p.ID() || existing.Amount() != req.Amount || existing.OrderName() != req.OrderID {
				return fmt.Errorf("%w: payment key %s already used", point.ErrPaymentAuthorizationFailed, req.PaymentKey)
			}
			result = existing
			balance = p.Balance()
			return nil
		case !errors.Is(err, point.ErrPointNotFound):
			return fmt.Errorf("failed to find charge: %w", err)
		}

		confirmed, err := s.gateway.ConfirmCharge(ctx, req.PaymentKey, req.Amount, req.OrderID)
		if err != nil {
			return fmt.Errorf("failed to confirm charge: %w", err)
		}
		if !confirmed.Matches(req.PaymentKey, req.Amount, req.OrderID) {
			return fmt.Errorf("%w: gateway returned key=%s amount=%d order=%s",
				point.ErrPaymentAuthorizationFailed, confirmed.PaymentKey, confirmed.TotalAmount, confirmed.OrderID)
		}

		charge, err := point.NewPointCharge(p.ID(), confirmed.PaymentKey, paymentName, confirmed.OrderID, confirmed.TotalAmount, confirmed.ApprovedAt)
		if err != nil {
			return err
		}
		if err := s.chargeRepo.Create(ctx, charge); err != nil {
			return fmt.Errorf("failed to create charge: %w", err)
		}
		if p, err = s.settle(ctx, p); err != nil {
			return err
		}

		result = charge
		balance = p.Balance()
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to charge points", "charge_failed", err, fields)
	}

	s.metrics.RecordLedgerEntry(ctx, "charge")
	s.metrics.RecordPointBalance(ctx, "charge", balance)
	span.SetAttributes(
		attribute.Int64("charge_id", result.ID()),
		attribute.Int64("balance", balance),
	)
	span.SetStatus(otelcodes.Ok, "points charged")
	s.logger.Info(ctx, "Points charged", map[string]interface{}{
		"operator_id": operatorID,
		"charge_id":   result.ID(),
		"balance":     balance,
	})

	return result, nil
}

// Debit ポイントを消費して使用履歴を記録
func (s *PointApplicationService) Debit(ctx context.Context, operatorID, amount int64, description string) (*point.PointUsage, error) {
	ctx, span := s.tracer.Start(ctx, "PointApplicationService.Debit")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("operator_id", operatorID),
		attribute.Int64("amount", amount),
	)

	fields := map[string]interface{}{
		"operator_id": operatorID,
		"amount":      amount,
		"description": description,
	}
	s.logger.Info(ctx, "Debiting points", fields)

	if amount <= 0 {
		return nil, s.fail(ctx, span, "Invalid debit amount", "debit_failed", point.ErrInvalidAmount, fields)
	}

	var usage *point.PointUsage
	var balance int64
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.pointRepo.FindByOperatorIDForUpdate(ctx, operatorID)
		if errors.Is(err, point.ErrPointNotFound) {
			return fmt.Errorf("%w: operator %d has no points", point.ErrInsufficientPoints, operatorID)
		}
		if err != nil {
			return fmt.Errorf("failed to find point: %w", err)
		}

		if err := p.Debit(amount); err != nil {
			return fmt.Errorf("%w: balance %d, requested %d", err, p.Balance(), amount)
		}

		u, err := point.NewPointUsage(p.ID(), description, amount, s.now())
		if err != nil {
			return err
		}
		if err := s.usageRepo.Create(ctx, u); err != nil {
			return fmt.Errorf("failed to create usage: %w", err)
		}
		if err := s.pointRepo.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save point: %w", err)
		}

		usage = u
		balance = p.Balance()
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to debit points", "debit_failed", err, fields)
	}

	s.metrics.RecordLedgerEntry(ctx, "use")
	s.metrics.RecordPointBalance(ctx, "use", balance)
	span.SetAttributes(attribute.Int64("balance", balance))
	span.SetStatus(otelcodes.Ok, "points debited")
	return usage, nil
}

// Refund 充電を取り消してポイントを返金
func (s *PointApplicationService) Refund(ctx context.Context, chargeID int64) (*point.PointRefund, error) {
	ctx, span := s.tracer.Start(ctx, "PointApplicationService.Refund")
	defer span.End()

	span.SetAttributes(attribute.Int64("charge_id", chargeID))

	fields := map[string]interface{}{"charge_id": chargeID}
	s.logger.Info(ctx, "Refunding charge", fields)

	var refund *point.PointRefund
	var operatorID, balance int64
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		charge, err := s.chargeRepo.FindByID(ctx, chargeID)
		if err != nil {
			return fmt.Errorf("failed to find charge: %w", err)
		}
		p, err := s.pointRepo.FindByIDForUpdate(ctx, charge.PointID())
		if err != nil {
			return fmt.Errorf("failed to lock point: %w", err)
		}
		operatorID = p.OperatorID()

		if err := point.CheckRefundEligibility(charge, p.Balance()); err != nil {
			return err
		}

		canceled, err := s.gateway.CancelCharge(ctx, charge.PaymentKey(), s.cancelReason)
		if err != nil {
			return fmt.Errorf("failed to cancel charge: %w", err)
		}

		if err := charge.Cancel(); err != nil {
			return err
		}
		if err := s.chargeRepo.Save(ctx, charge); err != nil {
			return fmt.Errorf("failed to save charge: %w", err)
		}
		if p, err = s.settle(ctx, p); err != nil {
			return err
		}

		refundedAt := canceled.CanceledAt
		if refundedAt.IsZero() {
			refundedAt = s.now()
		}
		r := point.NewPointRefund(p.ID(), charge.ID(), refundedAt)
		if err := s.refundRepo.Create(ctx, r); err != nil {
			return fmt.Errorf("failed to create refund: %w", err)
		}

		refund = r
		balance = p.Balance()
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to refund charge", "refund_failed", err, fields)
	}

	s.metrics.RecordLedgerEntry(ctx, "refund")
	s.metrics.RecordPointBalance(ctx, "refund", balance)
	span.SetAttributes(attribute.Int64("balance", balance))
	span.SetStatus(otelcodes.Ok, "charge refunded")
	s.logger.Info(ctx, "Charge refunded", map[string]interface{}{
		"charge_id":   chargeID,
		"operator_id": operatorID,
		"balance":     balance,
	})

	return refund, nil
}

// MonthlySummary 月次のポイント集計を取得
func (s *PointApplicationService) MonthlySummary(ctx context.Context, operatorID int64, month point.YearMonth) (*MonthlySummary, error) {
	ctx, span := s.tracer.Start(ctx, "PointApplicationService.MonthlySummary")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("operator_id", operatorID),
		attribute.String("month", month.String()),
	)

	fields := map[string]interface{}{
		"operator_id": operatorID,
		"month":       month.String(),
	}

	summary := &MonthlySummary{Month: month}

	p, err := s.pointRepo.FindByOperatorID(ctx, operatorID)
	if errors.Is(err, point.ErrPointNotFound) {
		span.SetStatus(otelcodes.Ok, "no points")
		return summary, nil
	}
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to find point", "summary_failed", fmt.Errorf("failed to find point: %w", err), fields)
	}

	totals := func(ym point.YearMonth) (int64, int64, error) {
		from, to := ym.Start(s.loc), ym.End(s.loc)
		charges, err := s.chargeRepo.FindByPointIDBetween(ctx, p.ID(), from, to)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to find charges: %w", err)
		}
		usages, err := s.usageRepo.FindByPointIDBetween(ctx, p.ID(), from, to)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to find usages: %w", err)
		}
		return point.SumRefundableCharges(charges), point.SumUsages(usages), nil
	}

	charged, used, err := totals(month)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to summarize month", "summary_failed", err, fields)
	}
	prevCharged, prevUsed, err := totals(month.Previous())
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to summarize previous month", "summary_failed", err, fields)
	}

	summary.Charged = charged
	summary.Used = used
	summary.Net = charged + prevCharged - used - prevUsed

	span.SetStatus(otelcodes.Ok, "summary computed")
	return summary, nil
}

// detail 充電履歴に区分と明細を付与
func (s *PointApplicationService) detail(ctx context.Context, charge *point.PointCharge) (ChargeDetail, error) {
	category, pointType := point.CategoryAndType(charge.Status())
	d := ChargeDetail{
		Charge:        charge,
		Category:      category,
		CategoryLabel: category.Description(),
		Type:          pointType,
		TypeLabel:     pointType.Description(),
		Receipts:      []Receipt{},
	}

	switch charge.Status() {
	case point.PointStatusPaid:
		d.Receipts = append(d.Receipts, Receipt{
			OrderName: charge.OrderName(),
			TradeAt:   charge.ChargedAt(),
			Amount:    charge.Amount(),
		})
	case point.PointStatusCanceled:
		refund, err := s.refundRepo.FindByChargeID(ctx, charge.ID())
		if errors.Is(err, point.ErrRefundNotFound) {
			return d, nil
		}
		if err != nil {
			return d, fmt.Errorf("failed to find refund: %w", err)
		}
		d.Receipts = append(d.Receipts, Receipt{
			OrderName: charge.OrderName(),
			TradeAt:   refund.RefundedAt(),
			Amount:    charge.Amount(),
		})
	}
	return d, nil
}

// GetCharge 充電履歴の詳細を取得
func (s *PointApplicationService) GetCharge(ctx context.Context, chargeID int64) (*ChargeDetail, error) {
	ctx, span := s.tracer.Start(ctx, "PointApplicationService.GetCharge")
	defer span.End()

	span.SetAttributes(attribute.Int64("charge_id", chargeID))

	fields := map[string]interface{}{"charge_id": chargeID}

	charge, err := s.chargeRepo.FindByID(ctx, chargeID)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to find charge", "charge_lookup_failed", fmt.Errorf("failed to find charge: %w", err), fields)
	}
	d, err := s.detail(ctx, charge)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to build charge detail", "charge_lookup_failed", err, fields)
	}

	span.SetStatus(otelcodes.Ok, "charge found")
	return &d, nil
}

// OwnsCharge 充電履歴が事業者のものか確認（他の事業者のものはErrPointNotFound）
func (s *PointApplicationService) OwnsCharge(ctx context.Context, operatorID, chargeID int64) error {
	ctx, span := s.tracer.Start(ctx, "PointApplicationService.OwnsCharge")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("operator_id", operatorID),
		attribute.Int64("charge_id", chargeID),
	)

	charge, err := s.chargeRepo.FindByID(ctx, chargeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to find charge: %w", err)
	}
	p, err := s.pointRepo.FindByOperatorID(ctx, operatorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to find point: %w", err)
	}
	if charge.PointID() != p.ID() {
		err := fmt.Errorf("%w: charge %d does not belong to operator %d", point.ErrPointNotFound, chargeID, operatorID)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	span.SetStatus(otelcodes.Ok, "charge owned")
	return nil
}

// ListCharges 充電履歴を新しい順に取得
func (s *PointApplicationService) ListCharges(ctx context.Context, operatorID int64, limit, offset int) (*ChargePage, error) {
	ctx, span := s.tracer.Start(ctx, "PointApplicationService.ListCharges")
	defer span.End()

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	span.SetAttributes(
		attribute.Int64("operator_id", operatorID),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	fields := map[string]interface{}{
		"operator_id": operatorID,
		"limit":       limit,
		"offset":      offset,
	}

	page := &ChargePage{Items: []ChargeDetail{}, Limit: limit, Offset: offset}

	p, err := s.pointRepo.FindByOperatorID(ctx, operatorID)
	if errors.Is(err, point.ErrPointNotFound) {
		span.SetStatus(otelcodes.Ok, "no points")
		return page, nil
	}
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to find point", "charge_list_failed", fmt.Errorf("failed to find point: %w", err), fields)
	}

	charges, err := s.chargeRepo.FindByPointID(ctx, p.ID(), limit, offset)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to find charges", "charge_list_failed", fmt.Errorf("failed to find charges: %w", err), fields)
	}

	for _, c := range charges {
		d, err := s.detail(ctx, c)
		if err != nil {
			return nil, s.fail(ctx, span, "Failed to build charge detail", "charge_list_failed", err, fields)
		}
		page.Items = append(page.Items, d)
	}

	span.SetAttributes(attribute.Int("result_count", len(page.Items)))
	span.SetStatus(otelcodes.Ok, "charges listed")
	return page, nil
}

// ReconcileBalance 履歴から残高を再計算し、ずれがあれば補正する
func (s *PointApplicationService) ReconcileBalance(ctx context.Context, operatorID int64) (*ReconcileResult, error) {
	ctx, span := s.tracer.Start(ctx, "PointApplicationService.ReconcileBalance")
	defer span.End()

	span.SetAttributes(attribute.Int64("operator_id", operatorID))

	fields := map[string]interface{}{"operator_id": operatorID}

	result := &ReconcileResult{OperatorID: operatorID}
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.lockOrCreate(ctx, operatorID)
		if err != nil {
			return err
		}
		result.Before = p.Balance()
		drift, err := s.recompute(ctx, p)
		if err != nil {
			return err
		}
		result.After = p.Balance()
		result.Drift = drift
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to reconcile balance", "reconcile_failed", err, fields)
	}

	if result.Drift != 0 {
		s.metrics.RecordBalanceDrift(ctx)
		s.logger.Warn(ctx, "Balance drift corrected", map[string]interface{}{
			"operator_id": operatorID,
			"before":      result.Before,
			"after":       result.After,
		})
	}
	s.metrics.RecordPointBalance(ctx, "reconcile", result.After)
	span.SetAttributes(attribute.Int64("drift", result.Drift))
	span.SetStatus(otelcodes.Ok, "balance reconciled")
	return result, nil
}
