package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lodging-backoffice/internal/domain/point"
)

// PointRefundRepository MySQL実装のPointRefundRepository
type PointRefundRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewPointRefundRepository 新しいPointRefundRepositoryを作成
func NewPointRefundRepository(db *DB) *PointRefundRepository {
	return &PointRefundRepository{
		db:     db,
		tracer: otel.Tracer("point-refund-repository"),
	}
}

// Create 返金履歴を作成
func (r *PointRefundRepository) Create(ctx context.Context, refund *point.PointRefund) error {
	ctx, span := r.tracer.Start(ctx, "PointRefundRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.point_id", refund.PointID()),
		attribute.Int64("db.charge_id", refund.ChargeID()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "point_refunds"),
	)

	query := `INSERT INTO point_refunds (point_id, charge_id, refunded_at) VALUES (?, ?, ?)`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, refund.PointID(), refund.ChargeID(), refund.RefundedAt())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create point refund: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	refund.SetID(id)

	span.SetStatus(otelcodes.Ok, "point refund created")
	return nil
}

// FindByChargeID 元の充電IDで返金履歴を取得
func (r *PointRefundRepository) FindByChargeID(ctx context.Context, chargeID int64) (*point.PointRefund, error) {
	ctx, span := r.tracer.Start(ctx, "PointRefundRepository.FindByChargeID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.charge_id", chargeID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "point_refunds"),
	)

	query := `SELECT id, point_id, charge_id, refunded_at FROM point_refunds WHERE charge_id = ?`

	var id, pointID, cID int64
	var refundedAt time.Time
	err := r.db.conn(ctx).QueryRowContext(ctx, query, chargeID).Scan(&id, &pointID, &cID, &refundedAt)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "point refund not found")
		return nil, point.ErrRefundNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find point refund: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "point refund found")
	return point.ReconstructPointRefund(id, pointID, cID, refundedAt), nil
}
