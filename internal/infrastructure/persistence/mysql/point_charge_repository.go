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

const pointChargeColumns = `id, point_id, payment_key, payment_name, order_name, charge_amount, charged_at, refund_deadline, refundable, status`

// PointChargeRepository MySQL実装のPointChargeRepository
type PointChargeRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewPointChargeRepository 新しいPointChargeRepositoryを作成
func NewPointChargeRepository(db *DB) *PointChargeRepository {
	return &PointChargeRepository{
		db:     db,
		tracer: otel.Tracer("point-charge-repository"),
	}
}

func scanPointCharge(row rowScanner) (*point.PointCharge, error) {
	var (
		id, pointID, amount                int64
		paymentKey, paymentName, orderName string
		chargedAt, refundDeadline          time.Time
		refundable                         bool
		status                             string
	)
	if err := row.Scan(&id, &pointID, &paymentKey, &paymentName, &orderName, &amount,
		&chargedAt, &refundDeadline, &refundable, &status); err != nil {
		return nil, err
	}
	st, err := point.NewPointStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", point.ErrInvalidCharge, err)
	}
	c, err := point.ReconstructPointCharge(id, pointID, paymentKey, paymentName, orderName, amount,
		chargedAt, refundDeadline, refundable, st)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct point charge entity: %w", err)
	}
	return c, nil
}

// Create 充電履歴を作成
func (r *PointChargeRepository) Create(ctx context.Context, c *point.PointCharge) error {
	ctx, span := r.tracer.Start(ctx, "PointChargeRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.point_id", c.PointID()),
		attribute.String("db.payment_key", c.PaymentKey()),
		attribute.Int64("db.amount", c.Amount()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "point_charges"),
	)

	query := `
		INSERT INTO point_charges (point_id, payment_key, payment_name, order_name, charge_amount, charged_at, refund_deadline, refundable, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		c.PointID(),
		c.PaymentKey(),
		c.PaymentName(),
		c.OrderName(),
		c.Amount(),
		c.ChargedAt(),
		c.RefundDeadline(),
		c.Refundable(),
		c.Status().String(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create point charge: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.SetID(id)

	span.SetAttributes(attribute.Int64("db.charge_id", id))
	span.SetStatus(otelcodes.Ok, "point charge created")
	return nil
}

// Save ステータスと返金可能フラグを更新
func (r *PointChargeRepository) Save(ctx context.Context, c *point.PointCharge) error {
	ctx, span := r.tracer.Start(ctx, "PointChargeRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.charge_id", c.ID()),
		attribute.String("db.status", c.Status().String()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "point_charges"),
	)

	query := `UPDATE point_charges SET status = ?, refundable = ? WHERE id = ?`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, c.Status().String(), c.Refundable(), c.ID())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save point charge: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Error, "point charge not found")
		return point.ErrPointNotFound
	}

	span.SetStatus(otelcodes.Ok, "point charge saved")
	return nil
}

func (r *PointChargeRepository) findOne(ctx context.Context, spanName, where string, arg interface{}) (*point.PointCharge, error) {
	ctx, span := r.tracer.Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "point_charges"),
	)

	query := `SELECT ` + pointChargeColumns + ` FROM point_charges WHERE ` + where

	c, err := scanPointCharge(r.db.conn(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "point charge not found")
		return nil, point.ErrPointNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find point charge: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.charge_id", c.ID()))
	span.SetStatus(otelcodes.Ok, "point charge found")
	return c, nil
}

// FindByID 充電IDで充電履歴を取得
func (r *PointChargeRepository) FindByID(ctx context.Context, chargeID int64) (*point.PointCharge, error) {
	return r.findOne(ctx, "PointChargeRepository.FindByID", "id = ?", chargeID)
}

// FindByPaymentKey 決済キーで充電履歴を取得
func (r *PointChargeRepository) FindByPaymentKey(ctx context.Context, paymentKey string) (*point.PointCharge, error) {
	return r.findOne(ctx, "PointChargeRepository.FindByPaymentKey", "payment_key = ?", paymentKey)
}

func (r *PointChargeRepository) findMany(ctx context.Context, spanName, query string, args ...interface{}) ([]*point.PointCharge, error) {
	ctx, span := r.tracer.Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "point_charges"),
	)

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find point charges: %w", err)
	}
	defer rows.Close()

	charges := make([]*point.PointCharge, 0)
	for rows.Next() {
		c, err := scanPointCharge(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan point charge: %w", err)
		}
		charges = append(charges, c)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate point charges: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(charges)))
	span.SetStatus(otelcodes.Ok, "point charges found")
	return charges, nil
}

// FindByPointID ポイントに属する充電履歴を新しい順に取得
func (r *PointChargeRepository) FindByPointID(ctx context.Context, pointID int64, limit, offset int) ([]*point.PointCharge, error) {
	query := `
		SELECT ` + pointChargeColumns + `
		FROM point_charges
		WHERE point_id = ?
		ORDER BY charged_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	return r.findMany(ctx, "PointChargeRepository.FindByPointID", query, pointID, limit, offset)
}

// FindAllByPointID ポイントに属する全ての充電履歴を取得
func (r *PointChargeRepository) FindAllByPointID(ctx context.Context, pointID int64) ([]*point.PointCharge, error) {
	query := `
		SELECT ` + pointChargeColumns + `
		FROM point_charges
		WHERE point_id = ?
		ORDER BY charged_at, id
	`
	return r.findMany(ctx, "PointChargeRepository.FindAllByPointID", query, pointID)
}

// FindByPointIDBetween 期間内 [from, to) の充電履歴を取得
func (r *PointChargeRepository) FindByPointIDBetween(ctx context.Context, pointID int64, from, to time.Time) ([]*point.PointCharge, error) {
	query := `
		SELECT ` + pointChargeColumns + `
		FROM point_charges
		WHERE point_id = ? AND charged_at >= ? AND charged_at < ?
		ORDER BY charged_at, id
	`
	return r.findMany(ctx, "PointChargeRepository.FindByPointIDBetween", query, pointID, from, to)
}
