package coupon

import (
	"fmt"
)

// CouponStatus クーポンステータスを表す値オブジェクト
type CouponStatus string

const (
	CouponStatusEnable  CouponStatus = "ENABLE"   // 販売中
	CouponStatusSoldOut CouponStatus = "SOLD_OUT" // 在庫切れ
	CouponStatusDeleted CouponStatus = "DELETED"  // 削除済み（終端）
)

// NewCouponStatus 新しいCouponStatusを作成
func NewCouponStatus(s string) (CouponStatus, error) {
	switch s {
	case "ENABLE", "SOLD_OUT", "DELETED":
		return CouponStatus(s), nil
	default:
		return "", fmt.Errorf("invalid coupon status: %s", s)
	}
}

// String 文字列表現を返す
func (cs CouponStatus) String() string {
	return string(cs)
}

// Valid 有効なステータスかどうかを返す
func (cs CouponStatus) Valid() bool {
	switch cs {
	case CouponStatusEnable, CouponStatusSoldOut, CouponStatusDeleted:
		return true
	default:
		return false
	}
}

// IsDeleted 削除済みかどうかを返す
func (cs CouponStatus) IsDeleted() bool {
	return cs == CouponStatusDeleted
}
