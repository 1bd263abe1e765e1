package discount

import (
	"fmt"
)

// DiscountType 割引タイプを表す値オブジェクト
type DiscountType string

const (
	DiscountTypeFlat DiscountType = "FLAT" // 定額割引（ウォン）
	DiscountTypeRate DiscountType = "RATE" // 定率割引（%）
)

// NameKind 表示名の種類
type NameKind int

const (
	NameTitle  NameKind = iota // 「50,000원 할인 쿠폰」
	NameList                   // 「50,000원 쿠폰」
	NameShort                  // 「50,000원」
	NameDetail                 // 「50,000원 할인」
)

// NewDiscountType 新しいDiscountTypeを作成
func NewDiscountType(s string) (DiscountType, error) {
	switch s {
	case "FLAT", "RATE":
		return DiscountType(s), nil
	default:
		return "", fmt.Errorf("%w: unknown discount type %q", ErrInvalidDiscount, s)
	}
}

// String 文字列表現を返す
func (dt DiscountType) String() string {
	return string(dt)
}

// Valid 有効な割引タイプかどうかを返す
func (dt DiscountType) Valid() bool {
	return dt == DiscountTypeFlat || dt == DiscountTypeRate
}

// Label 表示名の種類ごとのラベルを返す
func (dt DiscountType) Label(kind NameKind) string {
	switch dt {
	case DiscountTypeFlat:
		switch kind {
		case NameTitle:
			return "원 할인 쿠폰"
		case NameList:
			return "원 쿠폰"
		case NameShort:
			return "원"
		case NameDetail:
			return "원 할인"
		}
	case DiscountTypeRate:
		switch kind {
		case NameTitle:
			return "% 할인 쿠폰"
		case NameList:
			return "% 쿠폰"
		case NameShort:
			return "%"
		case NameDetail:
			return "% 할인"
		}
	}
	return ""
}
