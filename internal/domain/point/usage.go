package point

import (
	"time"
)

// PointUsage ポイント使用履歴（作成後は不変）
type PointUsage struct {
	id         int64
	pointID    int64
	category   PointCategory
	orderName  string
	orderedAt  time.Time
	orderPrice int64
}

// NewPointUsage 新しいPointUsageを作成
func NewPointUsage(pointID int64, orderName string, orderPrice int64, orderedAt time.Time) (*PointUsage, error) {
	if orderPrice <= 0 {
		return nil, ErrInvalidAmount
	}
	return &PointUsage{
		pointID:    pointID,
		category:   PointCategoryUse,
		orderName:  orderName,
		orderedAt:  orderedAt,
		orderPrice: orderPrice,
	}, nil
}

// ReconstructPointUsage 永続化されたPointUsageを復元
func ReconstructPointUsage(id, pointID int64, category PointCategory, orderName string, orderedAt time.Time, orderPrice int64) *PointUsage {
	return &PointUsage{
		id:         id,
		pointID:    pointID,
		category:   category,
		orderName:  orderName,
		orderedAt:  orderedAt,
		orderPrice: orderPrice,
	}
}

// ID 使用履歴IDを返す
func (u *PointUsage) ID() int64 {
	return u.id
}

// PointID ポイントIDを返す
func (u *PointUsage) PointID() int64 {
	return u.pointID
}

// Category 区分を返す
func (u *PointUsage) Category() PointCategory {
	return u.category
}

// OrderName 注文名を返す
func (u *PointUsage) OrderName() string {
	return u.orderName
}

// OrderedAt 注文日時を返す
func (u *PointUsage) OrderedAt() time.Time {
	return u.orderedAt
}

// OrderPrice 使用額を返す
func (u *PointUsage) OrderPrice() int64 {
	return u.orderPrice
}

// SetID 採番されたIDを設定
func (u *PointUsage) SetID(id int64) {
	u.id = id
}
