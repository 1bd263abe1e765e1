package point

import (
	"time"
)

// PointRefund 返金履歴（作成後は不変）
type PointRefund struct {
	id         int64
	pointID    int64
	chargeID   int64
	refundedAt time.Time
}

// NewPointRefund 新しいPointRefundを作成
func NewPointRefund(pointID, chargeID int64, refundedAt time.Time) *PointRefund {
	return &PointRefund{
		pointID:    pointID,
		chargeID:   chargeID,
		refundedAt: refundedAt,
	}
}

// ReconstructPointRefund 永続化されたPointRefundを復元
func ReconstructPointRefund(id, pointID, chargeID int64, refundedAt time.Time) *PointRefund {
	return &PointRefund{
		id:         id,
		pointID:    pointID,
		chargeID:   chargeID,
		refundedAt: refundedAt,
	}
}

// ID 返金履歴IDを返す
func (r *PointRefund) ID() int64 {
	return r.id
}

// PointID ポイントIDを返す
func (r *PointRefund) PointID() int64 {
	return r.pointID
}

// ChargeID 元の充電IDを返す
func (r *PointRefund) ChargeID() int64 {
	return r.chargeID
}

// RefundedAt 返金日時を返す
func (r *PointRefund) RefundedAt() time.Time {
	return r.refundedAt
}

// SetID 採番されたIDを設定
func (r *PointRefund) SetID(id int64) {
	r.id = id
}
