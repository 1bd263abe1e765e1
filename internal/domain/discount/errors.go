package discount

import "errors"

var (
	// ErrInvalidDiscount 割引値がタイプごとの制約を満たさない
	ErrInvalidDiscount = errors.New("invalid discount")
)
