package discount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Validate(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name      string
		dt        DiscountType
		value     int64
		wantError bool
	}{
		{name: "正常系: 定額の下限", dt: DiscountTypeFlat, value: 1000},
		{name: "正常系: 定額の上限", dt: DiscountTypeFlat, value: 50000},
		{name: "正常系: 定額の中間値", dt: DiscountTypeFlat, value: 5000},
		{name: "異常系: 定額が1000単位でない", dt: DiscountTypeFlat, value: 1500, wantError: true},
		{name: "異常系: 定額が下限未満", dt: DiscountTypeFlat, value: 0, wantError: true},
		{name: "異常系: 定額が上限超過", dt: DiscountTypeFlat, value: 51000, wantError: true},
		{name: "正常系: 定率の下限", dt: DiscountTypeRate, value: 1},
		{name: "正常系: 定率の上限", dt: DiscountTypeRate, value: 50},
		{name: "異常系: 定率が0", dt: DiscountTypeRate, value: 0, wantError: true},
		{name: "異常系: 定率が上限超過", dt: DiscountTypeRate, value: 51, wantError: true},
		{name: "異常系: 不明なタイプ", dt: DiscountType("POINT"), value: 10, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Validate(tt.dt, tt.value)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidDiscount)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicy_ValidateFlatProperty(t *testing.T) {
	policy := DefaultPolicy()
	r := policy.Restrictions()

	for v := int64(-2000); v <= 60000; v += 250 {
		want := r.MinPrice <= v && v <= r.MaxPrice && v%1000 == 0
		err := policy.Validate(DiscountTypeFlat, v)
		assert.Equal(t, want, err == nil, "value=%d", v)
	}
	for v := int64(-5); v <= 105; v++ {
		want := r.MinRate <= v && v <= r.MaxRate
		err := policy.Validate(DiscountTypeRate, v)
		assert.Equal(t, want, err == nil, "value=%d", v)
	}
}

func TestPolicy_CustomRestrictions(t *testing.T) {
	policy := NewPolicy(Restrictions{MinPrice: 2000, MaxPrice: 10000, MinRate: 5, MaxRate: 30})

	assert.ErrorIs(t, policy.Validate(DiscountTypeFlat, 1000), ErrInvalidDiscount)
	assert.NoError(t, policy.Validate(DiscountTypeFlat, 10000))
	assert.ErrorIs(t, policy.Validate(DiscountTypeRate, 40), ErrInvalidDiscount)
	assert.NoError(t, policy.Validate(DiscountTypeRate, 5))
}

func TestPolicy_ValidateForPrice(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name      string
		dt        DiscountType
		value     int64
		price     int64
		wantError bool
	}{
		{name: "正常系: 定額が価格未満", dt: DiscountTypeFlat, value: 5000, price: 100000},
		{name: "異常系: 定額が価格と同じ", dt: DiscountTypeFlat, value: 5000, price: 5000, wantError: true},
		{name: "異常系: 定額が価格超過", dt: DiscountTypeFlat, value: 50000, price: 30000, wantError: true},
		{name: "正常系: 定率は価格に依存しない", dt: DiscountTypeRate, value: 50, price: 1000},
		{name: "異常系: 定率が範囲外", dt: DiscountTypeRate, value: 60, price: 100000, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.ValidateForPrice(tt.dt, tt.value, tt.price)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidDiscount)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicy_Price(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name      string
		dt        DiscountType
		original  int64
		value     int64
		want      int64
		wantError bool
	}{
		{name: "正常系: 定額割引", dt: DiscountTypeFlat, original: 100000, value: 5000, want: 95000},
		{name: "正常系: 定率割引", dt: DiscountTypeRate, original: 100000, value: 10, want: 90000},
		{name: "正常系: 定率割引は切り捨て", dt: DiscountTypeRate, original: 99999, value: 10, want: 89999},
		{name: "正常系: 定率50%", dt: DiscountTypeRate, original: 33333, value: 50, want: 16666},
		{name: "異常系: 定額が価格以上", dt: DiscountTypeFlat, original: 5000, value: 5000, wantError: true},
		{name: "異常系: 負の価格", dt: DiscountTypeRate, original: -1, value: 10, wantError: true},
		{name: "異常系: 不明なタイプ", dt: DiscountType("X"), original: 1000, value: 10, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.Price(tt.dt, tt.original, tt.value)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidDiscount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_DisplayName(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name  string
		kind  NameKind
		dt    DiscountType
		value int64
		want  string
	}{
		{name: "定額のタイトル", kind: NameTitle, dt: DiscountTypeFlat, value: 50000, want: "50,000원 할인 쿠폰"},
		{name: "定額の一覧表示", kind: NameList, dt: DiscountTypeFlat, value: 5000, want: "5,000원 쿠폰"},
		{name: "定額の短縮表示", kind: NameShort, dt: DiscountTypeFlat, value: 1000, want: "1,000원"},
		{name: "定額の詳細表示", kind: NameDetail, dt: DiscountTypeFlat, value: 12000, want: "12,000원 할인"},
		{name: "定率のタイトル", kind: NameTitle, dt: DiscountTypeRate, value: 10, want: "10% 할인 쿠폰"},
		{name: "定率の一覧表示", kind: NameList, dt: DiscountTypeRate, value: 50, want: "50% 쿠폰"},
		{name: "定率の短縮表示", kind: NameShort, dt: DiscountTypeRate, value: 5, want: "5%"},
		{name: "不明なタイプは空文字", kind: NameTitle, dt: DiscountType("X"), value: 5, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.DisplayName(tt.kind, tt.dt, tt.value))
		})
	}
}
