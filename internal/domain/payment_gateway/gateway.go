package payment_gateway

import (
	"context"
	"errors"
	"time"
)

// ErrGatewayError 決済代行との通信・応答の解析に失敗
var ErrGatewayError = errors.New("payment gateway error")

// ChargeResult 決済代行の承認・取消結果
type ChargeResult struct {
	PaymentKey  string
	OrderID     string
	TotalAmount int64
	ApprovedAt  time.Time
	CanceledAt  time.Time // 取消時のみ
}

// Client 決済代行クライアントインターフェース
// 1回の呼び出しにつき1回だけ外部へリクエストし、リトライはしない
type Client interface {
	// ConfirmCharge 決済を承認
	ConfirmCharge(ctx context.Context, paymentKey string, amount int64, orderID string) (*ChargeResult, error)

	// CancelCharge 決済を取り消し
	CancelCharge(ctx context.Context, paymentKey, reason string) (*ChargeResult, error)
}

// Matches 承認結果がリクエストと完全に一致するかを返す
func (r *ChargeResult) Matches(paymentKey string, amount int64, orderID string) bool {
	return r.PaymentKey == paymentKey && r.TotalAmount == amount && r.OrderID == orderID
}
