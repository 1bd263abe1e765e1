package point

import (
	"fmt"
)

// SumRefundableCharges 返金可能な充電額の合計
func SumRefundableCharges(charges []*PointCharge) int64 {
	var sum int64
	for _, c := range charges {
		if c.Refundable() {
			sum += c.Amount()
		}
	}
	return sum
}

// SumUsages 使用額の合計
func SumUsages(usages []*PointUsage) int64 {
	var sum int64
	for _, u := range usages {
		sum += u.OrderPrice()
	}
	return sum
}

// RecomputeBalance 履歴から残高を再計算する
// 残高 = 返金可能な充電額の合計 - 使用額の合計
func RecomputeBalance(charges []*PointCharge, usages []*PointUsage) int64 {
	return SumRefundableCharges(charges) - SumUsages(usages)
}

// CheckRefundEligibility 返金可否を判定する
// 充電がPAIDであり、充電額が現在の残高以下であれば返金できる
func CheckRefundEligibility(charge *PointCharge, balance int64) error {
	if charge.Status() != PointStatusPaid {
		return fmt.Errorf("%w: charge %d is %s", ErrWrongRefundInfo, charge.ID(), charge.Status())
	}
	if charge.Amount() > balance {
		return fmt.Errorf("%w: charge amount %d exceeds balance %d", ErrWrongRefundInfo, charge.Amount(), balance)
	}
	return nil
}
