package coupon

import (
	"time"
)

// IssueCouponRequest クーポン発行（または追加発行）リクエスト
type IssueCouponRequest struct {
	RoomID        int64
	DiscountType  string // "FLAT" or "RATE"
	DiscountValue int64
	Quantity      int
	CouponType    string    // 省略時は "ALL_DAYS"
	DayLimit      int       // 0の場合は無制限（-1）
	EndDate       time.Time // ゼロ値の場合は翌月末日
}

// ModifyCouponRequest クーポン修正リクエスト（在庫以外の全項目）
type ModifyCouponRequest struct {
	CouponID      int64
	Status        string
	DiscountType  string
	DiscountValue int64
	CouponType    string
	DayLimit      int
	EndDate       time.Time
}

// ManageView 宿泊施設のクーポン管理画面
type ManageView struct {
	AccommodationID   int64
	AccommodationName string
	ExpiryDate        time.Time // 最も遅い有効期限
	Rooms             []RoomCoupons
}

// RoomCoupons 客室ごとのクーポン一覧
type RoomCoupons struct {
	RoomID    int64
	RoomName  string
	RoomPrice int64
	Coupons   []CouponView
}

// CouponView クーポン1件の表示内容
type CouponView struct {
	CouponID      int64
	Status        string
	DiscountType  string
	DiscountValue int64
	CouponName    string
	AppliedPrice  int64
	Stock         int
	CouponType    string
	DayLimit      int
	EndDate       time.Time
}
