package point

import (
	"fmt"
)

// PointStatus 充電ステータスを表す値オブジェクト
type PointStatus string

const (
	PointStatusPaid     PointStatus = "PAID"     // 결제 완료
	PointStatusCanceled PointStatus = "CANCELED" // 취소 완료
	PointStatusUsed     PointStatus = "USED"     // 구매 확정
)

// NewPointStatus 新しいPointStatusを作成
func NewPointStatus(s string) (PointStatus, error) {
	switch s {
	case "PAID", "CANCELED", "USED":
		return PointStatus(s), nil
	default:
		return "", fmt.Errorf("invalid point status: %s", s)
	}
}

// String 文字列表現を返す
func (ps PointStatus) String() string {
	return string(ps)
}

// Valid 有効なステータスかどうかを返す
func (ps PointStatus) Valid() bool {
	switch ps {
	case PointStatusPaid, PointStatusCanceled, PointStatusUsed:
		return true
	default:
		return false
	}
}

// Description 表示用の説明を返す
func (ps PointStatus) Description() string {
	switch ps {
	case PointStatusPaid:
		return "결제 완료"
	case PointStatusCanceled:
		return "취소 완료"
	case PointStatusUsed:
		return "구매 확정"
	default:
		return ""
	}
}
