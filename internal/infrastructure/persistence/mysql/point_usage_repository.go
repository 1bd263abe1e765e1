package mysql

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lodging-backoffice/internal/domain/point"
)

// PointUsageRepository MySQL実装のPointUsageRepository
type PointUsageRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewPointUsageRepository 新しいPointUsageRepositoryを作成
func NewPointUsageRepository(db *DB) *PointUsageRepository {
	return &PointUsageRepository{
		db:     db,
		tracer: otel.Tracer("point-usage-repository"),
	}
}

// Create 使用履歴を作成
func (r *PointUsageRepository) Create(ctx context.Context, u *point.PointUsage) error {
	ctx, span := r.tracer.Start(ctx, "PointUsageRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.point_id", u.PointID()),
		attribute.Int64("db.order_price", u.OrderPrice()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "point_usages"),
	)

	query := `
		INSERT INTO point_usages (point_id, category, order_name, ordered_at, order_price)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		u.PointID(),
		u.Category().String(),
		u.OrderName(),
		u.OrderedAt(),
		u.OrderPrice(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create point usage: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	u.SetID(id)

	span.SetStatus(otelcodes.Ok, "point usage created")
	return nil
}

// FindAllByPointID ポイントに属する全ての使用履歴を取得
func (r *PointUsageRepository) FindAllByPointID(ctx context.Context, pointID int64) ([]*point.PointUsage, error) {
	query := `
		SELECT id, point_id, category, order_name, ordered_at, order_price
		FROM point_usages
		WHERE point_id = ?
		ORDER BY ordered_at, id
	`
	return r.findMany(ctx, "PointUsageRepository.FindAllByPointID", query, pointID)
}

// FindByPointIDBetween 期間内 [from, to) の使用履歴を取得
func (r *PointUsageRepository) FindByPointIDBetween(ctx context.Context, pointID int64, from, to time.Time) ([]*point.PointUsage, error) {
	query := `
		SELECT id, point_id, category, order_name, ordered_at, order_price
		FROM point_usages
		WHERE point_id = ? AND ordered_at >= ? AND ordered_at < ?
		ORDER BY ordered_at, id
	`
	return r.findMany(ctx, "PointUsageRepository.FindByPointIDBetween", query, pointID, from, to)
}

func (r *PointUsageRepository) findMany(ctx context.Context, spanName, query string, args ...interface{}) ([]*point.PointUsage, error) {
	ctx, span := r.tracer.Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "point_usages"),
	)

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find point usages: %w", err)
	}
	defer rows.Close()

	usages := make([]*point.PointUsage, 0)
	for rows.Next() {
		var id, pID, orderPrice int64
		var category, orderName string
		var orderedAt time.Time
		if err := rows.Scan(&id, &pID, &category, &orderName, &orderedAt, &orderPrice); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan point usage: %w", err)
		}
		usages = append(usages, point.ReconstructPointUsage(id, pID, point.PointCategory(category), orderName, orderedAt, orderPrice))
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate point usages: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(usages)))
	span.SetStatus(otelcodes.Ok, "point usages found")
	return usages, nil
}
