package point

import "errors"

var (
	// ErrInsufficientPoints ポイント残高不足
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrPointNotFound ポイントまたは充電履歴が見つからない
	ErrPointNotFound = errors.New("point not found")
	// ErrPaymentAuthorizationFailed 決済承認結果がリクエストと一致しない
	ErrPaymentAuthorizationFailed = errors.New("payment authorization failed")
	// ErrWrongRefundInfo 返金できない充電
	ErrWrongRefundInfo = errors.New("wrong refund info")
	// ErrInvalidAmount 無効な金額
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidOperatorID 無効な事業者ID
	ErrInvalidOperatorID = errors.New("invalid operator id")
	// ErrInvalidCharge 充電情報が不正
	ErrInvalidCharge = errors.New("invalid charge")
	// ErrBalanceOutOfRange 残高が範囲外
	ErrBalanceOutOfRange = errors.New("balance out of range")
	// ErrRefundNotFound 返金履歴が見つからない
	ErrRefundNotFound = errors.New("refund not found")
	// ErrConcurrentModification 楽観的ロックの競合
	ErrConcurrentModification = errors.New("point was modified concurrently")
)
