package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lodging-backoffice/internal/domain/coupon"
	"lodging-backoffice/internal/domain/discount"
)

const couponColumns = `id, room_id, discount_type, discount_value, stock, status, coupon_type, day_limit, end_date, version, created_at, updated_at`

// rowScanner *sql.Row と *sql.Rows の共通部分
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// CouponRepository MySQL実装のCouponRepository
type CouponRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewCouponRepository 新しいCouponRepositoryを作成
func NewCouponRepository(db *DB) *CouponRepository {
	return &CouponRepository{
		db:     db,
		tracer: otel.Tracer("coupon-repository"),
	}
}

func scanCoupon(row rowScanner) (*coupon.Coupon, error) {
	var (
		id, roomID, discountValue int64
		stock, dayLimit, version  int
		discountType, status      string
		couponType                string
		endDate                   time.Time
		createdAt, updatedAt      time.Time
	)
	if err := row.Scan(&id, &roomID, &discountType, &discountValue, &stock, &status,
		&couponType, &dayLimit, &endDate, &version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	dt, err := discount.NewDiscountType(discountType)
	if err != nil {
		return nil, fmt.Errorf("invalid discount type: %w", err)
	}
	st, err := coupon.NewCouponStatus(status)
	if err != nil {
		return nil, fmt.Errorf("invalid coupon status: %w", err)
	}
	ct, err := coupon.NewCouponType(couponType)
	if err != nil {
		return nil, fmt.Errorf("invalid coupon type: %w", err)
	}

	c, err := coupon.ReconstructCoupon(id, roomID, dt, discountValue, stock, st, ct, dayLimit, endDate, version, createdAt, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct coupon entity: %w", err)
	}
	return c, nil
}

// FindByID クーポンIDでクーポンを取得
func (r *CouponRepository) FindByID(ctx context.Context, couponID int64) (*coupon.Coupon, error) {
	ctx, span := r.tracer.Start(ctx, "CouponRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.coupon_id", couponID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "coupons"),
	)

	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = ?`

	c, err := scanCoupon(r.db.conn(ctx).QueryRowContext(ctx, query, couponID))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "coupon not found")
		return nil, coupon.ErrCouponNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "coupon found")
	return c, nil
}

// FindActiveByRoomAndDiscount 削除済みを除き、客室・割引タイプ・割引値でクーポンを取得
func (r *CouponRepository) FindActiveByRoomAndDiscount(ctx context.Context, roomID int64, discountType discount.DiscountType, discountValue int64) (*coupon.Coupon, error) {
	ctx, span := r.tracer.Start(ctx, "CouponRepository.FindActiveByRoomAndDiscount")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", roomID),
		attribute.String("db.discount_type", discountType.String()),
		attribute.Int64("db.discount_value", discountValue),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "coupons"),
	)

	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE room_id = ? AND discount_type = ? AND discount_value = ? AND status <> 'DELETED'
		ORDER BY id
		LIMIT 1
	`

	c, err := scanCoupon(r.db.conn(ctx).QueryRowContext(ctx, query, roomID, discountType.String(), discountValue))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "coupon not found")
		return nil, coupon.ErrCouponNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "coupon found")
	return c, nil
}

// FindActiveByRoomIDs 削除済みを除き、客室に属するクーポンを客室ID・クーポンID順に取得
func (r *CouponRepository) FindActiveByRoomIDs(ctx context.Context, roomIDs []int64) ([]*coupon.Coupon, error) {
	ctx, span := r.tracer.Start(ctx, "CouponRepository.FindActiveByRoomIDs")
	defer span.End()

	span.SetAttributes(
		attribute.Int("db.room_count", len(roomIDs)),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "coupons"),
	)

	if len(roomIDs) == 0 {
		return []*coupon.Coupon{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(roomIDs)), ",")
	args := make([]interface{}, len(roomIDs))
	for i, id := range roomIDs {
		args[i] = id
	}

	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE room_id IN (` + placeholders + `) AND status <> 'DELETED'
		ORDER BY room_id, id
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]*coupon.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate coupons: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(coupons)))
	span.SetStatus(otelcodes.Ok, "coupons found")
	return coupons, nil
}

// Create 新しいクーポンを作成
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	ctx, span := r.tracer.Start(ctx, "CouponRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", c.RoomID()),
		attribute.String("db.discount_type", c.DiscountType().String()),
		attribute.Int64("db.discount_value", c.DiscountValue()),
		attribute.Int("db.stock", c.Stock()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "coupons"),
	)

	query := `
		INSERT INTO coupons (room_id, discount_type, discount_value, stock, status, coupon_type, day_limit, end_date, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		c.RoomID(),
		c.DiscountType().String(),
		c.DiscountValue(),
		c.Stock(),
		c.Status().String(),
		c.CouponType().String(),
		c.DayLimit(),
		c.EndDate(),
		c.Version(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.SetID(id)

	span.SetAttributes(attribute.Int64("db.coupon_id", id))
	span.SetStatus(otelcodes.Ok, "coupon created")
	return nil
}

// Save クーポンを保存（更新、楽観的ロック対応）
func (r *CouponRepository) Save(ctx context.Context, c *coupon.Coupon) error {
	ctx, span := r.tracer.Start(ctx, "CouponRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.coupon_id", c.ID()),
		attribute.Int("db.stock", c.Stock()),
		attribute.String("db.status", c.Status().String()),
		attribute.Int("db.version", c.Version()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "coupons"),
	)

	query := `
		UPDATE coupons
		SET discount_type = ?, discount_value = ?, stock = ?, status = ?, coupon_type = ?, day_limit = ?, end_date = ?,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		c.DiscountType().String(),
		c.DiscountValue(),
		c.Stock(),
		c.Status().String(),
		c.CouponType().String(),
		c.DayLimit(),
		c.EndDate(),
		c.ID(),
		c.Version(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save coupon: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		err := fmt.Errorf("%w: coupon %d version %d", coupon.ErrConcurrentModification, c.ID(), c.Version())
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	c.IncrementVersion()
	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "coupon saved")
	return nil
}
