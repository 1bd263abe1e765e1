package coupon_purchase

import (
	"time"
)

// LineItem 購入するクーポン1件（客室・割引内容が同じ既存クーポンがあれば在庫追加）
type LineItem struct {
	RoomID        int64
	DiscountType  string
	DiscountValue int64
	Quantity      int
	CouponType    string
	DayLimit      int
	EndDate       time.Time
}

// PurchaseRequest クーポン購入リクエスト
type PurchaseRequest struct {
	OperatorID int64
	TotalCost  int64
	Items      []LineItem
}

// AddOnItem 既存クーポンへの追加在庫
type AddOnItem struct {
	CouponID int64
	Quantity int
}

// AddOnRequest 追加購入リクエスト
type AddOnRequest struct {
	OperatorID int64
	TotalCost  int64
	Items      []AddOnItem
}
