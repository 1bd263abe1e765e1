package point

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoint(t *testing.T) {
	p, err := NewPoint(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.OperatorID())
	assert.Equal(t, int64(0), p.Balance())
	assert.Equal(t, 0, p.Version())

	_, err = NewPoint(0)
	assert.ErrorIs(t, err, ErrInvalidOperatorID)
}

func TestReconstructPoint(t *testing.T) {
	_, err := ReconstructPoint(1, 42, -1, 0, zeroTime, zeroTime)
	assert.ErrorIs(t, err, ErrBalanceOutOfRange)

	_, err = ReconstructPoint(1, 0, 100, 0, zeroTime, zeroTime)
	assert.ErrorIs(t, err, ErrInvalidOperatorID)
}

func TestPoint_Debit(t *testing.T) {
	tests := []struct {
		name        string
		balance     int64
		amount      int64
		wantBalance int64
		wantErr     error
	}{
		{name: "正常系: 残高内で消費", balance: 50000, amount: 30000, wantBalance: 20000},
		{name: "正常系: 残高ちょうど", balance: 30000, amount: 30000, wantBalance: 0},
		{name: "異常系: 残高不足", balance: 10000, amount: 10001, wantBalance: 10000, wantErr: ErrInsufficientPoints},
		{name: "異常系: 金額0", balance: 10000, amount: 0, wantBalance: 10000, wantErr: ErrInvalidAmount},
		{name: "異常系: 負の金額", balance: 10000, amount: -1, wantBalance: 10000, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MustReconstructPoint(1, 42, tt.balance, 1)
			err := p.Debit(tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantBalance, p.Balance())
		})
	}
}

func TestPoint_ApplyRecomputedBalance(t *testing.T) {
	p := MustReconstructPoint(1, 42, 100, 1)

	require.NoError(t, p.ApplyRecomputedBalance(70000))
	assert.Equal(t, int64(70000), p.Balance())

	assert.ErrorIs(t, p.ApplyRecomputedBalance(-1), ErrBalanceOutOfRange)
	assert.Equal(t, int64(70000), p.Balance())
}

func TestPoint_IncrementVersion(t *testing.T) {
	p := MustReconstructPoint(1, 42, 100, 3)
	p.IncrementVersion()
	assert.Equal(t, 4, p.Version())
}
