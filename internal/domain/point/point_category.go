package point

// PointCategory 履歴の区分
type PointCategory string

const (
	PointCategoryCharge PointCategory = "CHARGE"
	PointCategoryUse    PointCategory = "USE"
	PointCategoryRefund PointCategory = "REFUND"
)

// String 文字列表現を返す
func (pc PointCategory) String() string {
	return string(pc)
}

// Description 表示用の説明を返す
func (pc PointCategory) Description() string {
	switch pc {
	case PointCategoryCharge:
		return "충전"
	case PointCategoryUse:
		return "사용"
	case PointCategoryRefund:
		return "환불"
	default:
		return ""
	}
}

// PointType 履歴の種別
type PointType string

const (
	PointTypePoint  PointType = "POINT"
	PointTypeRefund PointType = "REFUND"
)

// Description 表示用の説明を返す
func (pt PointType) Description() string {
	switch pt {
	case PointTypePoint:
		return "포인트"
	case PointTypeRefund:
		return "환불"
	default:
		return ""
	}
}

// CategoryAndType 充電ステータスから履歴の区分と種別を返す
func CategoryAndType(status PointStatus) (PointCategory, PointType) {
	switch status {
	case PointStatusCanceled:
		return PointCategoryRefund, PointTypeRefund
	case PointStatusUsed:
		return PointCategoryUse, PointTypePoint
	default:
		return PointCategoryCharge, PointTypePoint
	}
}
