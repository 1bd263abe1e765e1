package handler

// dateLayout クーポン有効期限の日付形式
const dateLayout = "2006-01-02"

// CouponResponse クーポンレスポンス
type CouponResponse struct {
	CouponID      int64  `json:"coupon_id" example:"10"`
	RoomID        int64  `json:"room_id" example:"3"`
	Status        string `json:"status" example:"ENABLE" enums:"ENABLE,SOLD_OUT,DELETED"`
	DiscountType  string `json:"discount_type" example:"FLAT" enums:"FLAT,RATE"`
	DiscountValue int64  `json:"discount_value" example:"5000"`
	Stock         int    `json:"stock" example:"10"`
	CouponType    string `json:"coupon_type" example:"ALL_DAYS"`
	DayLimit      int    `json:"day_limit" example:"-1"`
	EndDate       string `json:"end_date" example:"2026-11-30"`
}

// CouponViewResponse 管理画面のクーポン1件
type CouponViewResponse struct {
	CouponID      int64  `json:"coupon_id" example:"10"`
	Status        string `json:"status" example:"ENABLE"`
	DiscountType  string `json:"discount_type" example:"RATE"`
	DiscountValue int64  `json:"discount_value" example:"10"`
	CouponName    string `json:"coupon_name" example:"10% 할인"`
	AppliedPrice  string `json:"applied_price" example:"90000"`
	Stock         int    `json:"stock" example:"10"`
	CouponType    string `json:"coupon_type" example:"ALL_DAYS"`
	DayLimit      int    `json:"day_limit" example:"-1"`
	EndDate       string `json:"end_date" example:"2026-11-30"`
}

// RoomCouponsResponse 客室ごとのクーポン一覧
type RoomCouponsResponse struct {
	RoomID    int64                `json:"room_id" example:"3"`
	RoomName  string               `json:"room_name" example:"디럭스 더블"`
	RoomPrice string               `json:"room_price" example:"100000"`
	Coupons   []CouponViewResponse `json:"coupons"`
}

// ManageViewResponse 宿泊施設のクーポン管理画面
type ManageViewResponse struct {
	AccommodationID   int64                 `json:"accommodation_id" example:"1"`
	AccommodationName string                `json:"accommodation_name" example:"해운대 호텔"`
	ExpiryDate        string                `json:"expiry_date,omitempty" example:"2026-11-30"`
	Rooms             []RoomCouponsResponse `json:"rooms"`
}

// PurchaseItem 購入するクーポン1件
type PurchaseItem struct {
	RoomID        int64  `json:"room_id" example:"3"`
	DiscountType  string `json:"discount_type" example:"FLAT" enums:"FLAT,RATE"`
	DiscountValue int64  `json:"discount_value" example:"5000"`
	Quantity      int    `json:"quantity" example:"10"`
	CouponType    string `json:"coupon_type,omitempty" example:"ALL_DAYS"`
	DayLimit      int    `json:"day_limit,omitempty" example:"0"`
	EndDate       string `json:"end_date,omitempty" example:"2026-11-30"`
}

// PurchaseCouponsRequest クーポン購入リクエスト
type PurchaseCouponsRequest struct {
	TotalCost string         `json:"total_cost" example:"30000"`
	Items     []PurchaseItem `json:"items"`
}

// AddOnItem 追加購入するクーポン1件
type AddOnItem struct {
	CouponID int64 `json:"coupon_id" example:"10"`
	Quantity int   `json:"quantity" example:"5"`
}

// AddOnCouponsRequest クーポン追加購入リクエスト
type AddOnCouponsRequest struct {
	TotalCost string      `json:"total_cost" example:"15000"`
	Items     []AddOnItem `json:"items"`
}

// PurchaseResponse 購入結果
type PurchaseResponse struct {
	TotalCost string           `json:"total_cost" example:"30000"`
	Coupons   []CouponResponse `json:"coupons"`
}

// ModifyCouponRequest クーポン修正リクエスト
type ModifyCouponRequest struct {
	Status        string `json:"status" example:"ENABLE" enums:"ENABLE,SOLD_OUT"`
	DiscountType  string `json:"discount_type" example:"RATE" enums:"FLAT,RATE"`
	DiscountValue int64  `json:"discount_value" example:"15"`
	CouponType    string `json:"coupon_type" example:"WEEKDAYS"`
	DayLimit      int    `json:"day_limit" example:"2"`
	EndDate       string `json:"end_date" example:"2026-12-31"`
}
