package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lodging-backoffice/internal/domain/room"
)

// RoomRepository MySQL実装のRoomRepository（読み取り専用）
type RoomRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewRoomRepository 新しいRoomRepositoryを作成
func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{
		db:     db,
		tracer: otel.Tracer("room-repository"),
	}
}

func scanRoom(row rowScanner) (*room.Room, error) {
	var id, accommodationID, price int64
	var accommodationName, name string
	if err := row.Scan(&id, &accommodationID, &accommodationName, &name, &price); err != nil {
		return nil, err
	}
	return room.NewRoom(id, accommodationID, accommodationName, name, price), nil
}

// FindByID 客室IDで客室を取得
func (r *RoomRepository) FindByID(ctx context.Context, roomID int64) (*room.Room, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", roomID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "rooms"),
	)

	query := `
		SELECT r.id, r.accommodation_id, a.name, r.name, r.price
		FROM rooms r
		JOIN accommodations a ON a.id = r.accommodation_id
		WHERE r.id = ?
	`

	rm, err := scanRoom(r.db.conn(ctx).QueryRowContext(ctx, query, roomID))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "room not found")
		return nil, room.ErrRoomNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "room found")
	return rm, nil
}

// FindByAccommodationID 宿泊施設に属する客室を客室ID順に取得
func (r *RoomRepository) FindByAccommodationID(ctx context.Context, accommodationID int64) ([]*room.Room, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.FindByAccommodationID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.accommodation_id", accommodationID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "rooms"),
	)

	query := `
		SELECT r.id, r.accommodation_id, a.name, r.name, r.price
		FROM rooms r
		JOIN accommodations a ON a.id = r.accommodation_id
		WHERE r.accommodation_id = ?
		ORDER BY r.id
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, accommodationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*room.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, rm)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(rooms)))
	span.SetStatus(otelcodes.Ok, "rooms found")
	return rooms, nil
}

// AccommodationOwnedBy 宿泊施設が事業者のものか
func (r *RoomRepository) AccommodationOwnedBy(ctx context.Context, accommodationID, operatorID int64) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.AccommodationOwnedBy")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.accommodation_id", accommodationID),
		attribute.Int64("db.operator_id", operatorID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "accommodations"),
	)

	query := `SELECT EXISTS(SELECT 1 FROM accommodations WHERE id = ? AND operator_id = ?)`

	var owned bool
	if err := r.db.conn(ctx).QueryRowContext(ctx, query, accommodationID, operatorID).Scan(&owned); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to check accommodation owner: %w", err)
	}

	span.SetAttributes(attribute.Bool("db.owned", owned))
	span.SetStatus(otelcodes.Ok, "accommodation owner checked")
	return owned, nil
}
