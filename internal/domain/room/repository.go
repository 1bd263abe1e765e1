package room

import (
	"context"
	"errors"
)

var (
	// ErrRoomNotFound 客室が見つからない
	ErrRoomNotFound = errors.New("room not found")

	// ErrAccommodationNotFound 宿泊施設が見つからない（他の事業者の施設を含む）
	ErrAccommodationNotFound = errors.New("accommodation not found")
)

// RoomRepository 客室リポジトリインターフェース（読み取り専用）
type RoomRepository interface {
	// FindByID 客室IDで客室を取得
	FindByID(ctx context.Context, roomID int64) (*Room, error)

	// FindByAccommodationID 宿泊施設に属する客室を客室ID順に取得
	FindByAccommodationID(ctx context.Context, accommodationID int64) ([]*Room, error)

	// AccommodationOwnedBy 宿泊施設が事業者のものか
	AccommodationOwnedBy(ctx context.Context, accommodationID, operatorID int64) (bool, error)
}
