package point

import (
	"time"
)

// Point 事業者ごとのポイント残高エンティティ
type Point struct {
	id         int64
	operatorID int64
	balance    int64
	version    int // 楽観的ロック用
	createdAt  time.Time
	updatedAt  time.Time
}

// NewPoint 残高0の新しいPointを作成
func NewPoint(operatorID int64) (*Point, error) {
	if operatorID <= 0 {
		return nil, ErrInvalidOperatorID
	}
	return &Point{
		operatorID: operatorID,
	}, nil
}

// ReconstructPoint 永続化されたPointを復元
func ReconstructPoint(id, operatorID, balance int64, version int, createdAt, updatedAt time.Time) (*Point, error) {
	if operatorID <= 0 {
		return nil, ErrInvalidOperatorID
	}
	if balance < 0 {
		return nil, ErrBalanceOutOfRange
	}
	return &Point{
		id:         id,
		operatorID: operatorID,
		balance:    balance,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}, nil
}

// ID ポイントIDを返す
func (p *Point) ID() int64 {
	return p.id
}

// OperatorID 事業者IDを返す
func (p *Point) OperatorID() int64 {
	return p.operatorID
}

// Balance 残高を返す
func (p *Point) Balance() int64 {
	return p.balance
}

// Version バージョンを返す（楽観的ロック用）
func (p *Point) Version() int {
	return p.version
}

// CreatedAt 作成日時を返す
func (p *Point) CreatedAt() time.Time {
	return p.createdAt
}

// UpdatedAt 更新日時を返す
func (p *Point) UpdatedAt() time.Time {
	return p.updatedAt
}

// SetID 採番されたIDを設定
func (p *Point) SetID(id int64) {
	p.id = id
}

// IncrementVersion バージョンをインクリメント（保存成功後に呼ぶ）
func (p *Point) IncrementVersion() {
	p.version++
}

// Debit ポイントを消費する
func (p *Point) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > p.balance {
		return ErrInsufficientPoints
	}
	p.balance -= amount
	return nil
}

// ApplyRecomputedBalance 履歴から再計算した残高を反映する
func (p *Point) ApplyRecomputedBalance(balance int64) error {
	if balance < 0 {
		return ErrBalanceOutOfRange
	}
	p.balance = balance
	return nil
}

// MustReconstructPoint テスト用ヘルパー: ReconstructPointを呼び出し、エラーが発生した場合はpanicする
func MustReconstructPoint(id, operatorID, balance int64, version int) *Point {
	p, err := ReconstructPoint(id, operatorID, balance, version, time.Time{}, time.Time{})
	if err != nil {
		panic(err)
	}
	return p
}
