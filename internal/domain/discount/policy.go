package discount

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FlatUnit 定額割引の刻み（ウォン）
const FlatUnit = 1000

// Restrictions 割引値の上下限
type Restrictions struct {
	MinPrice int64
	MaxPrice int64
	MinRate  int64
	MaxRate  int64
}

// DefaultRestrictions デフォルトの上下限を返す
func DefaultRestrictions() Restrictions {
	return Restrictions{
		MinPrice: 1000,
		MaxPrice: 50000,
		MinRate:  1,
		MaxRate:  50,
	}
}

// Policy 割引の検証・価格計算・表示名の生成を提供
type Policy struct {
	restrictions Restrictions
	lang         language.Tag
}

// NewPolicy 新しいPolicyを作成
func NewPolicy(r Restrictions) *Policy {
	return &Policy{
		restrictions: r,
		lang:         language.Korean,
	}
}

// DefaultPolicy デフォルトの上下限でPolicyを作成
func DefaultPolicy() *Policy {
	return NewPolicy(DefaultRestrictions())
}

// Restrictions 上下限を返す
func (p *Policy) Restrictions() Restrictions {
	return p.restrictions
}

// Validate 割引値を検証
func (p *Policy) Validate(dt DiscountType, value int64) error {
	r := p.restrictions
	switch dt {
	case DiscountTypeFlat:
		if value < r.MinPrice || value > r.MaxPrice || value%FlatUnit != 0 {
			return fmt.Errorf("%w: flat discount %d must be within %d..%d in units of %d",
				ErrInvalidDiscount, value, r.MinPrice, r.MaxPrice, FlatUnit)
		}
		return nil
	case DiscountTypeRate:
		if value < r.MinRate || value > r.MaxRate {
			return fmt.Errorf("%w: rate discount %d must be within %d..%d",
				ErrInvalidDiscount, value, r.MinRate, r.MaxRate)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrInvalidDiscount, dt)
	}
}

// ValidateForPrice 割引値を検証し、定額割引が元の価格を下回ることを確認
func (p *Policy) ValidateForPrice(dt DiscountType, value, originalPrice int64) error {
	if err := p.Validate(dt, value); err != nil {
		return err
	}
	if dt == DiscountTypeFlat && value >= originalPrice {
		return fmt.Errorf("%w: flat discount %d must be less than price %d",
			ErrInvalidDiscount, value, originalPrice)
	}
	return nil
}

// Price 割引後の価格を計算
// 定率割引は整数演算で切り捨てる（99999の10%引きは89999）
func (p *Policy) Price(dt DiscountType, originalPrice, value int64) (int64, error) {
	if originalPrice < 0 {
		return 0, fmt.Errorf("%w: negative price %d", ErrInvalidDiscount, originalPrice)
	}
	switch dt {
	case DiscountTypeFlat:
		if value < 0 || value >= originalPrice {
			return 0, fmt.Errorf("%w: flat discount %d exceeds price %d",
				ErrInvalidDiscount, value, originalPrice)
		}
		return originalPrice - value, nil
	case DiscountTypeRate:
		if value < 0 || value > 100 {
			return 0, fmt.Errorf("%w: rate discount %d out of range", ErrInvalidDiscount, value)
		}
		return originalPrice * (100 - value) / 100, nil
	default:
		return 0, fmt.Errorf("%w: unknown discount type %q", ErrInvalidDiscount, dt)
	}
}

// DisplayName 表示名を生成（定額は3桁区切り）
func (p *Policy) DisplayName(kind NameKind, dt DiscountType, value int64) string {
	switch dt {
	case DiscountTypeFlat:
		return message.NewPrinter(p.lang).Sprintf("%d", value) + dt.Label(kind)
	case DiscountTypeRate:
		return fmt.Sprintf("%d", value) + dt.Label(kind)
	default:
		return ""
	}
}
