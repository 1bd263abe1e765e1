package coupon

import (
	"fmt"
	"time"

	"lodging-backoffice/internal/domain/discount"
)

// UnlimitedDayLimit 連泊日数の制限なし
const UnlimitedDayLimit = -1

// Coupon クーポンエンティティ
// (roomID, discountType, discountValue) の組は削除済みを除いて一意
type Coupon struct {
	id            int64
	roomID        int64
	discountType  discount.DiscountType
	discountValue int64
	stock         int
	status        CouponStatus
	couponType    CouponType
	dayLimit      int
	endDate       time.Time
	version       int // 楽観的ロック用
	createdAt     time.Time
	updatedAt     time.Time
}

// NewCoupon 新規発行するCouponを作成（ステータスはENABLE）
func NewCoupon(
	roomID int64,
	discountType discount.DiscountType,
	discountValue int64,
	stock int,
	couponType CouponType,
	dayLimit int,
	endDate time.Time,
) (*Coupon, error) {
	if roomID <= 0 {
		return nil, fmt.Errorf("%w: room id %d", ErrInvalidCouponInfo, roomID)
	}
	if !discountType.Valid() {
		return nil, fmt.Errorf("%w: unknown discount type %q", discount.ErrInvalidDiscount, discountType)
	}
	if stock <= 0 {
		return nil, ErrInvalidQuantity
	}
	if err := validateScope(couponType, dayLimit); err != nil {
		return nil, err
	}
	return &Coupon{
		roomID:        roomID,
		discountType:  discountType,
		discountValue: discountValue,
		stock:         stock,
		status:        CouponStatusEnable,
		couponType:    couponType,
		dayLimit:      dayLimit,
		endDate:       endDate,
	}, nil
}

// ReconstructCoupon 永続化されたCouponを復元
func ReconstructCoupon(
	id int64,
	roomID int64,
	discountType discount.DiscountType,
	discountValue int64,
	stock int,
	status CouponStatus,
	couponType CouponType,
	dayLimit int,
	endDate time.Time,
	version int,
	createdAt time.Time,
	updatedAt time.Time,
) (*Coupon, error) {
	if stock < 0 {
		return nil, fmt.Errorf("%w: negative stock %d", ErrInvalidQuantity, stock)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidCouponInfo, status)
	}
	return &Coupon{
		id:            id,
		roomID:        roomID,
		discountType:  discountType,
		discountValue: discountValue,
		stock:         stock,
		status:        status,
		couponType:    couponType,
		dayLimit:      dayLimit,
		endDate:       endDate,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func validateScope(couponType CouponType, dayLimit int) error {
	if !couponType.Valid() {
		return fmt.Errorf("%w: coupon type %q", ErrInvalidCouponInfo, couponType)
	}
	if dayLimit != UnlimitedDayLimit && dayLimit <= 0 {
		return fmt.Errorf("%w: day limit %d", ErrInvalidCouponInfo, dayLimit)
	}
	return nil
}

// ID クーポンIDを返す
func (c *Coupon) ID() int64 {
	return c.id
}

// RoomID 客室IDを返す
func (c *Coupon) RoomID() int64 {
	return c.roomID
}

// DiscountType 割引タイプを返す
func (c *Coupon) DiscountType() discount.DiscountType {
	return c.discountType
}

// DiscountValue 割引値を返す
func (c *Coupon) DiscountValue() int64 {
	return c.discountValue
}

// Stock 在庫数を返す
func (c *Coupon) Stock() int {
	return c.stock
}

// Status ステータスを返す
func (c *Coupon) Status() CouponStatus {
	return c.status
}

// CouponType 適用曜日区分を返す
func (c *Coupon) CouponType() CouponType {
	return c.couponType
}

// DayLimit 連泊日数の制限を返す
func (c *Coupon) DayLimit() int {
	return c.dayLimit
}

// EndDate 有効期限を返す
func (c *Coupon) EndDate() time.Time {
	return c.endDate
}

// Version バージョンを返す（楽観的ロック用）
func (c *Coupon) Version() int {
	return c.version
}

// CreatedAt 作成日時を返す
func (c *Coupon) CreatedAt() time.Time {
	return c.createdAt
}

// UpdatedAt 更新日時を返す
func (c *Coupon) UpdatedAt() time.Time {
	return c.updatedAt
}

// IsDeleted 削除済みかどうかを返す
func (c *Coupon) IsDeleted() bool {
	return c.status.IsDeleted()
}

// SetID 採番されたIDを設定
func (c *Coupon) SetID(id int64) {
	c.id = id
}

// IncrementVersion バージョンをインクリメント（保存成功後に呼ぶ）
func (c *Coupon) IncrementVersion() {
	c.version++
}

// IncreaseStock 在庫を追加する
// 在庫が0から増えた場合はSOLD_OUTからENABLEに戻す
func (c *Coupon) IncreaseStock(quantity int) error {
	if c.IsDeleted() {
		return ErrCouponDeleted
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	wasEmpty := c.stock == 0
	c.stock += quantity
	if wasEmpty && c.status == CouponStatusSoldOut {
		c.status = CouponStatusEnable
	}
	return nil
}

// DecreaseStock 在庫を消費する
// 在庫が0になった場合はSOLD_OUTにする
func (c *Coupon) DecreaseStock(quantity int) error {
	if c.IsDeleted() {
		return ErrCouponDeleted
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if c.status != CouponStatusEnable || c.stock < quantity {
		return ErrInsufficientCouponStock
	}
	c.stock -= quantity
	if c.stock == 0 {
		c.status = CouponStatusSoldOut
	}
	return nil
}

// Modify 在庫以外の全項目を更新する
// 在庫0のクーポンをENABLEにした場合はSOLD_OUTとして扱う
func (c *Coupon) Modify(
	status CouponStatus,
	discountType discount.DiscountType,
	discountValue int64,
	couponType CouponType,
	dayLimit int,
	endDate time.Time,
) error {
	if c.IsDeleted() {
		return ErrCouponDeleted
	}
	if status != CouponStatusEnable && status != CouponStatusSoldOut {
		return fmt.Errorf("%w: status %q", ErrInvalidCouponInfo, status)
	}
	if !discountType.Valid() {
		return fmt.Errorf("%w: unknown discount type %q", discount.ErrInvalidDiscount, discountType)
	}
	if err := validateScope(couponType, dayLimit); err != nil {
		return err
	}
	if status == CouponStatusEnable && c.stock == 0 {
		status = CouponStatusSoldOut
	}
	c.status = status
	c.discountType = discountType
	c.discountValue = discountValue
	c.couponType = couponType
	c.dayLimit = dayLimit
	c.endDate = endDate
	return nil
}

// Delete 論理削除する（削除済みなら何もしない）
func (c *Coupon) Delete() {
	c.status = CouponStatusDeleted
}

// MustNewCoupon テスト用ヘルパー: NewCouponを呼び出し、エラーが発生した場合はpanicする
func MustNewCoupon(roomID int64, discountType discount.DiscountType, discountValue int64, stock int, endDate time.Time) *Coupon {
	c, err := NewCoupon(roomID, discountType, discountValue, stock, CouponTypeAllDays, UnlimitedDayLimit, endDate)
	if err != nil {
		panic(err)
	}
	return c
}

// MustReconstructCoupon テスト用ヘルパー: ReconstructCouponを呼び出し、エラーが発生した場合はpanicする
func MustReconstructCoupon(id, roomID int64, discountType discount.DiscountType, discountValue int64, stock int, status CouponStatus, version int) *Coupon {
	c, err := ReconstructCoupon(id, roomID, discountType, discountValue, stock, status,
		CouponTypeAllDays, UnlimitedDayLimit, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), version, time.Time{}, time.Time{})
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultEndDate 発行日の翌月末日を返す
func DefaultEndDate(issuedAt time.Time) time.Time {
	y, m, _ := issuedAt.Date()
	return time.Date(y, m+2, 0, 0, 0, 0, 0, issuedAt.Location())
}
