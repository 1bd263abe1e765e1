package point

import (
	"fmt"
	"time"
)

// RefundWindow 充電から返金期限までの期間
const RefundWindow = 7 * 24 * time.Hour

// PointCharge ポイント充電エンティティ
type PointCharge struct {
	id             int64
	pointID        int64
	paymentKey     string
	paymentName    string
	orderName      string
	amount         int64
	chargedAt      time.Time
	refundDeadline time.Time
	refundable     bool
	status         PointStatus
}

// NewPointCharge 決済承認済みのPointChargeを作成（PAID、返金可能）
func NewPointCharge(pointID int64, paymentKey, paymentName, orderName string, amount int64, chargedAt time.Time) (*PointCharge, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if paymentKey == "" || orderName == "" {
		return nil, fmt.Errorf("%w: payment key and order name are required", ErrInvalidCharge)
	}
	return &PointCharge{
		pointID:        pointID,
		paymentKey:     paymentKey,
		paymentName:    paymentName,
		orderName:      orderName,
		amount:         amount,
		chargedAt:      chargedAt,
		refundDeadline: chargedAt.Add(RefundWindow),
		refundable:     true,
		status:         PointStatusPaid,
	}, nil
}

// ReconstructPointCharge 永続化されたPointChargeを復元
func ReconstructPointCharge(
	id int64,
	pointID int64,
	paymentKey string,
	paymentName string,
	orderName string,
	amount int64,
	chargedAt time.Time,
	refundDeadline time.Time,
	refundable bool,
	status PointStatus,
) (*PointCharge, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidCharge, status)
	}
	return &PointCharge{
		id:             id,
		pointID:        pointID,
		paymentKey:     paymentKey,
		paymentName:    paymentName,
		orderName:      orderName,
		amount:         amount,
		chargedAt:      chargedAt,
		refundDeadline: refundDeadline,
		refundable:     refundable,
		status:         status,
	}, nil
}

// ID 充電IDを返す
func (c *PointCharge) ID() int64 {
	return c.id
}

// PointID ポイントIDを返す
func (c *PointCharge) PointID() int64 {
	return c.pointID
}

// PaymentKey 決済キーを返す
func (c *PointCharge) PaymentKey() string {
	return c.paymentKey
}

// PaymentName 決済名を返す
func (c *PointCharge) PaymentName() string {
	return c.paymentName
}

// OrderName 注文名（決済代行の注文ID）を返す
func (c *PointCharge) OrderName() string {
	return c.orderName
}

// Amount 充電額を返す
func (c *PointCharge) Amount() int64 {
	return c.amount
}

// ChargedAt 充電日時を返す
func (c *PointCharge) ChargedAt() time.Time {
	return c.chargedAt
}

// RefundDeadline 返金期限を返す
func (c *PointCharge) RefundDeadline() time.Time {
	return c.refundDeadline
}

// Refundable 返金可能フラグを返す
func (c *PointCharge) Refundable() bool {
	return c.refundable
}

// Status ステータスを返す
func (c *PointCharge) Status() PointStatus {
	return c.status
}

// SetID 採番されたIDを設定
func (c *PointCharge) SetID(id int64) {
	c.id = id
}

// Cancel 返金済みにする
func (c *PointCharge) Cancel() error {
	if c.status != PointStatusPaid {
		return ErrWrongRefundInfo
	}
	c.status = PointStatusCanceled
	c.refundable = false
	return nil
}

// MustNewPointCharge テスト用ヘルパー: NewPointChargeを呼び出し、エラーが発生した場合はpanicする
func MustNewPointCharge(id, pointID int64, paymentKey, orderName string, amount int64, chargedAt time.Time) *PointCharge {
	c, err := NewPointCharge(pointID, paymentKey, "토스페이먼츠", orderName, amount, chargedAt)
	if err != nil {
		panic(err)
	}
	c.SetID(id)
	return c
}
