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

// PointRepository MySQL実装のPointRepository
type PointRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewPointRepository 新しいPointRepositoryを作成
func NewPointRepository(db *DB) *PointRepository {
	return &PointRepository{
		db:     db,
		tracer: otel.Tracer("point-repository"),
	}
}

func scanPoint(row rowScanner) (*point.Point, error) {
	var id, operatorID, balance int64
	var version int
	var createdAt, updatedAt time.Time
	if err := row.Scan(&id, &operatorID, &balance, &version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p, err := point.ReconstructPoint(id, operatorID, balance, version, createdAt, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct point entity: %w", err)
	}
	return p, nil
}

func (r *PointRepository) findOne(ctx context.Context, spanName, where string, arg interface{}, forUpdate bool) (*point.Point, error) {
	ctx, span := r.tracer.Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "points"),
	)

	query := `SELECT id, operator_id, balance, version, created_at, updated_at FROM points WHERE ` + where
	if forUpdate {
		query += ` FOR UPDATE`
	}
	span.SetAttributes(attribute.Bool("db.for_update", forUpdate))

	p, err := scanPoint(r.db.conn(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "point not found")
		return nil, point.ErrPointNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find point: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.point_id", p.ID()))
	span.SetStatus(otelcodes.Ok, "point found")
	return p, nil
}

// FindByOperatorID 事業者IDでポイントを取得
func (r *PointRepository) FindByOperatorID(ctx context.Context, operatorID int64) (*point.Point, error) {
	return r.findOne(ctx, "PointRepository.FindByOperatorID", "operator_id = ?", operatorID, false)
}

// FindByID ポイントIDでポイントを取得
func (r *PointRepository) FindByID(ctx context.Context, pointID int64) (*point.Point, error) {
	return r.findOne(ctx, "PointRepository.FindByID", "id = ?", pointID, false)
}

// FindByOperatorIDForUpdate 事業者IDでポイントを行ロック付きで取得（トランザクション内で使う）
func (r *PointRepository) FindByOperatorIDForUpdate(ctx context.Context, operatorID int64) (*point.Point, error) {
	return r.findOne(ctx, "PointRepository.FindByOperatorIDForUpdate", "operator_id = ?", operatorID, true)
}

// FindByIDForUpdate ポイントIDでポイントを行ロック付きで取得（トランザクション内で使う）
func (r *PointRepository) FindByIDForUpdate(ctx context.Context, pointID int64) (*point.Point, error) {
	return r.findOne(ctx, "PointRepository.FindByIDForUpdate", "id = ?", pointID, true)
}

// Create 新しいポイントを作成
func (r *PointRepository) Create(ctx context.Context, p *point.Point) error {
	ctx, span := r.tracer.Start(ctx, "PointRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.operator_id", p.OperatorID()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "points"),
	)

	query := `INSERT INTO points (operator_id, balance, version) VALUES (?, ?, ?)`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, p.OperatorID(), p.Balance(), p.Version())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create point: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.SetID(id)

	span.SetStatus(otelcodes.Ok, "point created")
	return nil
}

// Save ポイントを保存（更新、楽観的ロック対応）
func (r *PointRepository) Save(ctx context.Context, p *point.Point) error {
	ctx, span := r.tracer.Start(ctx, "PointRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.point_id", p.ID()),
		attribute.Int64("db.balance", p.Balance()),
		attribute.Int("db.version", p.Version()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "points"),
	)

	query := `
		UPDATE points
		SET balance = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, p.Balance(), p.ID(), p.Version())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save point: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		err := fmt.Errorf("%w: point %d version %d", point.ErrConcurrentModification, p.ID(), p.Version())
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	p.IncrementVersion()
	span.SetStatus(otelcodes.Ok, "point saved")
	return nil
}
