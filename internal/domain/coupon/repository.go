package coupon

import (
	"context"

	"lodging-backoffice/internal/domain/discount"
)

// CouponRepository クーポンリポジトリインターフェース
type CouponRepository interface {
	// FindByID クーポンIDでクーポンを取得
	FindByID(ctx context.Context, couponID int64) (*Coupon, error)

	// FindActiveByRoomAndDiscount 削除済みを除き、客室・割引タイプ・割引値でクーポンを取得
	FindActiveByRoomAndDiscount(ctx context.Context, roomID int64, discountType discount.DiscountType, discountValue int64) (*Coupon, error)

	// FindActiveByRoomIDs 削除済みを除き、客室に属するクーポンを取得
	FindActiveByRoomIDs(ctx context.Context, roomIDs []int64) ([]*Coupon, error)

	// Create 新しいクーポンを作成
	Create(ctx context.Context, coupon *Coupon) error

	// Save クーポンを保存（更新、楽観的ロック対応）
	Save(ctx context.Context, coupon *Coupon) error
}
