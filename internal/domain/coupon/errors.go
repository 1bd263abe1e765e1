package coupon

import "errors"

var (
	// ErrInvalidCouponInfo クーポン・客室が存在しない、または入力が不正
	ErrInvalidCouponInfo = errors.New("invalid coupon info")
	// ErrInsufficientCouponStock クーポン在庫不足
	ErrInsufficientCouponStock = errors.New("insufficient coupon stock")
	// ErrCouponDeleted 削除済みクーポンへの操作
	ErrCouponDeleted = errors.New("coupon already deleted")
	// ErrInvalidQuantity 数量が不正
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrCouponNotFound クーポンが見つからない
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrConcurrentModification 楽観的ロックの競合
	ErrConcurrentModification = errors.New("coupon was modified concurrently")
)
