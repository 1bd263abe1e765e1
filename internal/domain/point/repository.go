package point

import (
	"context"
	"time"
)

// PointRepository ポイントリポジトリインターフェース
type PointRepository interface {
	// FindByOperatorID 事業者IDでポイントを取得
	FindByOperatorID(ctx context.Context, operatorID int64) (*Point, error)

	// FindByID ポイントIDでポイントを取得
	FindByID(ctx context.Context, pointID int64) (*Point, error)

	// FindByOperatorIDForUpdate 事業者IDでポイントを行ロック付きで取得
	FindByOperatorIDForUpdate(ctx context.Context, operatorID int64) (*Point, error)

	// FindByIDForUpdate ポイントIDでポイントを行ロック付きで取得
	FindByIDForUpdate(ctx context.Context, pointID int64) (*Point, error)

	// Create 新しいポイントを作成
	Create(ctx context.Context, point *Point) error

	// Save ポイントを保存（更新、楽観的ロック対応）
	Save(ctx context.Context, point *Point) error
}

// PointChargeRepository 充電履歴リポジトリインターフェース
type PointChargeRepository interface {
	// Create 充電履歴を作成
	Create(ctx context.Context, charge *PointCharge) error

	// Save ステータスと返金可能フラグを更新
	Save(ctx context.Context, charge *PointCharge) error

	// FindByID 充電IDで充電履歴を取得
	FindByID(ctx context.Context, chargeID int64) (*PointCharge, error)

	// FindByPaymentKey 決済キーで充電履歴を取得
	FindByPaymentKey(ctx context.Context, paymentKey string) (*PointCharge, error)

	// FindByPointID ポイントに属する充電履歴を新しい順に取得
	FindByPointID(ctx context.Context, pointID int64, limit, offset int) ([]*PointCharge, error)

	// FindAllByPointID ポイントに属する全ての充電履歴を取得
	FindAllByPointID(ctx context.Context, pointID int64) ([]*PointCharge, error)

	// FindByPointIDBetween 期間内 [from, to) の充電履歴を取得
	FindByPointIDBetween(ctx context.Context, pointID int64, from, to time.Time) ([]*PointCharge, error)
}

// PointUsageRepository 使用履歴リポジトリインターフェース
type PointUsageRepository interface {
	// Create 使用履歴を作成
	Create(ctx context.Context, usage *PointUsage) error

	// FindAllByPointID ポイントに属する全ての使用履歴を取得
	FindAllByPointID(ctx context.Context, pointID int64) ([]*PointUsage, error)

	// FindByPointIDBetween 期間内 [from, to) の使用履歴を取得
	FindByPointIDBetween(ctx context.Context, pointID int64, from, to time.Time) ([]*PointUsage, error)
}

// PointRefundRepository 返金履歴リポジトリインターフェース
type PointRefundRepository interface {
	// Create 返金履歴を作成
	Create(ctx context.Context, refund *PointRefund) error

	// FindByChargeID 元の充電IDで返金履歴を取得
	FindByChargeID(ctx context.Context, chargeID int64) (*PointRefund, error)
}
