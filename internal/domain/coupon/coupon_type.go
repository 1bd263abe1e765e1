package coupon

import (
	"fmt"
)

// CouponType クーポンの適用曜日区分
type CouponType string

const (
	CouponTypeAllDays  CouponType = "ALL_DAYS" // 全日
	CouponTypeWeekdays CouponType = "WEEKDAYS" // 平日
	CouponTypeWeekends CouponType = "WEEKENDS" // 週末
)

// NewCouponType 新しいCouponTypeを作成
func NewCouponType(s string) (CouponType, error) {
	switch s {
	case "ALL_DAYS", "WEEKDAYS", "WEEKENDS":
		return CouponType(s), nil
	default:
		return "", fmt.Errorf("invalid coupon type: %s", s)
	}
}

// String 文字列表現を返す
func (ct CouponType) String() string {
	return string(ct)
}

// Valid 有効な区分かどうかを返す
func (ct CouponType) Valid() bool {
	switch ct {
	case CouponTypeAllDays, CouponTypeWeekdays, CouponTypeWeekends:
		return true
	default:
		return false
	}
}
