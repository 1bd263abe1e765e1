package handler

import "time"

// BalanceResponse 残高レスポンス
type BalanceResponse struct {
	OperatorID int64  `json:"operator_id" example:"42"`
	Balance    string `json:"balance" example:"50000"`
}

// MonthlySummaryResponse 月次集計レスポンス
type MonthlySummaryResponse struct {
	Month   string `json:"month" example:"2026-10"`
	Charged string `json:"charged" example:"30000"`
	Used    string `json:"used" example:"10000"`
	Net     string `json:"net" example:"20000"`
}

// ChargeConfirmRequest ポイント充電（決済承認）リクエスト
type ChargeConfirmRequest struct {
	PaymentKey  string `json:"payment_key" example:"tgen_20261019"`
	OrderID     string `json:"order_id" example:"order-0001"`
	Amount      string `json:"amount" example:"10000"`
	PaymentName string `json:"payment_name,omitempty" example:"토스페이먼츠"`
}

// ChargeResponse 充電レスポンス
type ChargeResponse struct {
	ChargeID       int64     `json:"charge_id" example:"1"`
	PaymentKey     string    `json:"payment_key" example:"tgen_20261019"`
	PaymentName    string    `json:"payment_name" example:"토스페이먼츠"`
	OrderName      string    `json:"order_name" example:"order-0001"`
	Amount         string    `json:"amount" example:"10000"`
	Status         string    `json:"status" example:"PAID" enums:"PAID,CANCELED,USED"`
	Refundable     bool      `json:"refundable" example:"true"`
	ChargedAt      time.Time `json:"charged_at"`
	RefundDeadline time.Time `json:"refund_deadline"`
}

// ReceiptResponse 明細
type ReceiptResponse struct {
	OrderName string    `json:"order_name" example:"order-0001"`
	TradeAt   time.Time `json:"trade_at"`
	Amount    string    `json:"amount" example:"10000"`
}

// ChargeDetailResponse 充電履歴の詳細
type ChargeDetailResponse struct {
	Charge        ChargeResponse    `json:"charge"`
	Category      string            `json:"category" example:"CHARGE" enums:"CHARGE,USE,REFUND"`
	CategoryLabel string            `json:"category_label" example:"충전"`
	Type          string            `json:"type" example:"POINT" enums:"POINT,REFUND"`
	TypeLabel     string            `json:"type_label" example:"포인트"`
	Receipts      []ReceiptResponse `json:"receipts"`
}

// ChargeListResponse 充電履歴一覧
type ChargeListResponse struct {
	Items  []ChargeDetailResponse `json:"items"`
	Limit  int                    `json:"limit" example:"20"`
	Offset int                    `json:"offset" example:"0"`
}

// RefundResponse 返金レスポンス
type RefundResponse struct {
	RefundID   int64     `json:"refund_id" example:"1"`
	ChargeID   int64     `json:"charge_id" example:"1"`
	RefundedAt time.Time `json:"refunded_at"`
}

// ReconcileResponse 残高再計算レスポンス
type ReconcileResponse struct {
	OperatorID int64  `json:"operator_id" example:"42"`
	Before     string `json:"before" example:"50000"`
	After      string `json:"after" example:"40000"`
	Drift      string `json:"drift" example:"-10000"`
}
