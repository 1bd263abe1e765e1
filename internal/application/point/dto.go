package point

import (
	"time"

	"lodging-backoffice/internal/domain/point"
)

// ChargeRequest ポイント充電（決済承認）リクエスト
type ChargeRequest struct {
	PaymentKey  string
	OrderID     string
	Amount      int64
	PaymentName string // 省略時は DefaultPaymentName
}

// MonthlySummary 月次のポイント集計
type MonthlySummary struct {
	Month   point.YearMonth
	Charged int64 // 当月の返金可能な充電額
	Used    int64 // 当月の使用額
	Net     int64 // 当月と前月の充電額 - 当月と前月の使用額
}

// Receipt 充電履歴に紐づく明細
type Receipt struct {
	OrderName string
	TradeAt   time.Time
	Amount    int64
}

// ChargeDetail 充電履歴と表示用の区分
type ChargeDetail struct {
	Charge        *point.PointCharge
	Category      point.PointCategory
	CategoryLabel string
	Type          point.PointType
	TypeLabel     string
	Receipts      []Receipt
}

// ChargePage 充電履歴のページ
type ChargePage struct {
	Items  []ChargeDetail
	Limit  int
	Offset int
}

// ReconcileResult 残高再計算の結果
type ReconcileResult struct {
	OperatorID int64
	Before     int64
	After      int64
	Drift      int64 // After - Before
}
