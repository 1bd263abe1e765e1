package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	couponapp "lodging-backoffice/internal/application/coupon"
	purchaseapp "lodging-backoffice/internal/application/coupon_purchase"
	"lodging-backoffice/internal/domain/coupon"
	"lodging-backoffice/internal/domain/discount"
	"lodging-backoffice/internal/domain/point"
	"lodging-backoffice/internal/domain/room"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// errForeign 他の事業者の宿泊施設に属する場合のエラー
var errForeign = fmt.Errorf("accommodation 1 does not belong to operator 42: %w", room.ErrAccommodationNotFound)

func newCouponHandlerEcho(couponSvc *MockCouponService, purchaseSvc *MockCouponPurchaseService, operatorID int64) *echo.Echo {
	e := newTestEcho()
	h := NewCouponHandler(couponSvc, purchaseSvc)

	auth := withOperator(operatorID)
	e.GET("/api/v1/accommodations/:accommodation_id/coupons", h.ListByAccommodation, auth)
	e.POST("/api/v1/coupons", h.Purchase, auth)
	e.PATCH("/api/v1/coupons/stock", h.AddOn, auth)
	e.PUT("/api/v1/coupons/:coupon_id", h.Modify, auth)
	e.DELETE("/api/v1/coupons/:coupon_id", h.Delete, auth)
	return e
}

func TestCouponHandler_ListByAccommodation(t *testing.T) {
	endDate := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	view := &couponapp.ManageView{
		AccommodationID:   1,
		AccommodationName: "해운대 호텔",
		ExpiryDate:        endDate,
		Rooms: []couponapp.RoomCoupons{{
			RoomID:    3,
			RoomName:  "디럭스 더블",
			RoomPrice: 100000,
			Coupons: []couponapp.CouponView{{
				CouponID:      10,
				Status:        "ENABLE",
				DiscountType:  "RATE",
				DiscountValue: 10,
				CouponName:    "10% 쿠폰",
				AppliedPrice:  90000,
				Stock:         5,
				CouponType:    "ALL_DAYS",
				DayLimit:      -1,
				EndDate:       endDate,
			}},
		}},
	}

	tests := []struct {
		name           string
		path           string
		setupMock      func(*MockCouponService)
		expectedStatus int
	}{
		{
			name: "正常系: 客室ごとのクーポン一覧",
			path: "/api/v1/accommodations/1/coupons",
			setupMock: func(m *MockCouponService) {
				m.On("OwnsAccommodation", mock.Anything, int64(42), int64(1)).Return(nil)
				m.On("ListByAccommodation", mock.Anything, int64(1)).Return(view, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "異常系: 他の事業者の宿泊施設",
			path: "/api/v1/accommodations/1/coupons",
			setupMock: func(m *MockCouponService) {
				m.On("OwnsAccommodation", mock.Anything, int64(42), int64(1)).Return(errForeign)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "異常系: accommodation_idが不正",
			path:           "/api/v1/accommodations/x/coupons",
			setupMock:      func(m *MockCouponService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			couponSvc := new(MockCouponService)
			tt.setupMock(couponSvc)
			e := newCouponHandlerEcho(couponSvc, new(MockCouponPurchaseService), 42)

			rec := serve(e, http.MethodGet, tt.path, "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp ManageViewResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "2026-11-30", resp.ExpiryDate)
				require.Len(t, resp.Rooms, 1)
				assert.Equal(t, "100000", resp.Rooms[0].RoomPrice)
				require.Len(t, resp.Rooms[0].Coupons, 1)
				assert.Equal(t, "90000", resp.Rooms[0].Coupons[0].AppliedPrice)
				assert.Equal(t, "10% 쿠폰", resp.Rooms[0].Coupons[0].CouponName)
			}
			couponSvc.AssertExpectations(t)
		})
	}
}

func TestCouponHandler_Purchase(t *testing.T) {
	endDate := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		operatorID     int64
		body           string
		ownErr         error
		setupMock      func(*MockCouponPurchaseService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:       "正常系: 購入成功",
			operatorID: 42,
			body:       `{"total_cost":"30000","items":[{"room_id":3,"discount_type":"FLAT","discount_value":5000,"quantity":10,"end_date":"2026-11-30"}]}`,
			setupMock: func(m *MockCouponPurchaseService) {
				req := &purchaseapp.PurchaseRequest{
					OperatorID: 42,
					TotalCost:  30000,
					Items: []purchaseapp.LineItem{{
						RoomID: 3, DiscountType: "FLAT", DiscountValue: 5000, Quantity: 10, EndDate: endDate,
					}},
				}
				cp := coupon.MustNewCoupon(3, discount.DiscountTypeFlat, 5000, 10, endDate)
				cp.SetID(10)
				m.On("Purchase", mock.Anything, req).Return([]*coupon.Coupon{cp}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "異常系: 未認証",
			body:           `{"total_cost":"30000","items":[]}`,
			setupMock:      func(m *MockCouponPurchaseService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: 有効期限の形式が不正",
			operatorID:     42,
			body:           `{"total_cost":"30000","items":[{"room_id":3,"discount_type":"FLAT","discount_value":5000,"quantity":10,"end_date":"11/30"}]}`,
			setupMock:      func(m *MockCouponPurchaseService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:       "異常系: ポイント不足",
			operatorID: 42,
			body:       `{"total_cost":"30000","items":[{"room_id":3,"discount_type":"FLAT","discount_value":5000,"quantity":10}]}`,
			setupMock: func(m *MockCouponPurchaseService) {
				m.On("Purchase", mock.Anything, mock.Anything).Return(nil, point.ErrInsufficientPoints)
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "6004",
		},
		{
			name:           "異常系: 他の事業者の客室",
			operatorID:     42,
			body:           `{"total_cost":"30000","items":[{"room_id":3,"discount_type":"FLAT","discount_value":5000,"quantity":10},{"room_id":3,"discount_type":"RATE","discount_value":10,"quantity":5}]}`,
			ownErr:         errForeign,
			setupMock:      func(m *MockCouponPurchaseService) {},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "5000",
		},
		{
			name:       "異常系: 不正なクーポン情報",
			operatorID: 42,
			body:       `{"total_cost":"30000","items":[{"room_id":999,"discount_type":"FLAT","discount_value":5000,"quantity":10}]}`,
			setupMock: func(m *MockCouponPurchaseService) {
				m.On("Purchase", mock.Anything, mock.Anything).Return(nil, coupon.ErrInvalidCouponInfo)
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			couponSvc := new(MockCouponService)
			couponSvc.On("OwnsRoom", mock.Anything, int64(42), mock.Anything).Return(tt.ownErr).Maybe()
			purchaseSvc := new(MockCouponPurchaseService)
			tt.setupMock(purchaseSvc)
			e := newCouponHandlerEcho(couponSvc, purchaseSvc, tt.operatorID)

			rec := serve(e, http.MethodPost, "/api/v1/coupons", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusCreated {
				var resp PurchaseResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "30000", resp.TotalCost)
				require.Len(t, resp.Coupons, 1)
				assert.Equal(t, int64(10), resp.Coupons[0].CouponID)
				assert.Equal(t, 10, resp.Coupons[0].Stock)
				assert.Equal(t, "2026-11-30", resp.Coupons[0].EndDate)
			}
			if tt.expectedCode != "" {
				body := decodeBody(t, rec.Body.Bytes())
				assert.Equal(t, tt.expectedCode, body["code"])
			}
			if tt.ownErr != nil {
				// 同じ客室は一度だけ確認し、購入は行わない
				couponSvc.AssertNumberOfCalls(t, "OwnsRoom", 1)
				purchaseSvc.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything)
			}
			purchaseSvc.AssertExpectations(t)
		})
	}
}

func TestCouponHandler_AddOn(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		ownErr         error
		setupMock      func(*MockCouponPurchaseService)
		expectedStatus int
	}{
		{
			name: "正常系: 追加購入成功",
			body: `{"total_cost":"15000","items":[{"coupon_id":10,"quantity":5}]}`,
			setupMock: func(m *MockCouponPurchaseService) {
				req := &purchaseapp.AddOnRequest{
					OperatorID: 42,
					TotalCost:  15000,
					Items:      []purchaseapp.AddOnItem{{CouponID: 10, Quantity: 5}},
				}
				cp := coupon.MustReconstructCoupon(10, 3, discount.DiscountTypeFlat, 5000, 15, coupon.CouponStatusEnable, 2)
				m.On("AddOn", mock.Anything, req).Return([]*coupon.Coupon{cp}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "異常系: total_costが数値でない",
			body:           `{"total_cost":"many","items":[{"coupon_id":10,"quantity":5}]}`,
			setupMock:      func(m *MockCouponPurchaseService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "異常系: 他の事業者のクーポン",
			body:           `{"total_cost":"15000","items":[{"coupon_id":10,"quantity":5}]}`,
			ownErr:         errForeign,
			setupMock:      func(m *MockCouponPurchaseService) {},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "異常系: 削除済みクーポン",
			body: `{"total_cost":"15000","items":[{"coupon_id":10,"quantity":5}]}`,
			setupMock: func(m *MockCouponPurchaseService) {
				m.On("AddOn", mock.Anything, mock.Anything).Return(nil, coupon.ErrCouponDeleted)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			couponSvc := new(MockCouponService)
			couponSvc.On("OwnsCoupon", mock.Anything, int64(42), int64(10)).Return(tt.ownErr).Maybe()
			purchaseSvc := new(MockCouponPurchaseService)
			tt.setupMock(purchaseSvc)
			e := newCouponHandlerEcho(couponSvc, purchaseSvc, 42)

			rec := serve(e, http.MethodPatch, "/api/v1/coupons/stock", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp PurchaseResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				require.Len(t, resp.Coupons, 1)
				assert.Equal(t, 15, resp.Coupons[0].Stock)
			}
			purchaseSvc.AssertExpectations(t)
		})
	}
}

func TestCouponHandler_Modify(t *testing.T) {
	endDate := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		path           string
		body           string
		setupMock      func(*MockCouponService)
		expectedStatus int
	}{
		{
			name: "正常系: 修正成功",
			path: "/api/v1/coupons/10",
			body: `{"status":"ENABLE","discount_type":"RATE","discount_value":15,"coupon_type":"ALL_DAYS","day_limit":-1,"end_date":"2026-12-31"}`,
			setupMock: func(m *MockCouponService) {
				req := &couponapp.ModifyCouponRequest{
					CouponID:      10,
					Status:        "ENABLE",
					DiscountType:  "RATE",
					DiscountValue: 15,
					CouponType:    "ALL_DAYS",
					DayLimit:      -1,
					EndDate:       endDate,
				}
				cp := coupon.MustReconstructCoupon(10, 3, discount.DiscountTypeRate, 15, 5, coupon.CouponStatusEnable, 2)
				m.On("OwnsCoupon", mock.Anything, int64(42), int64(10)).Return(nil)
				m.On("Modify", mock.Anything, req).Return(cp, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "異常系: 割引額が不正",
			path: "/api/v1/coupons/10",
			body: `{"status":"ENABLE","discount_type":"RATE","discount_value":80,"coupon_type":"ALL_DAYS","end_date":"2026-12-31"}`,
			setupMock: func(m *MockCouponService) {
				m.On("OwnsCoupon", mock.Anything, int64(42), int64(10)).Return(nil)
				m.On("Modify", mock.Anything, mock.Anything).Return(nil, discount.ErrInvalidDiscount)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "異常系: 他の事業者のクーポン",
			path: "/api/v1/coupons/10",
			body: `{"status":"ENABLE","discount_type":"RATE","discount_value":15,"coupon_type":"ALL_DAYS","end_date":"2026-12-31"}`,
			setupMock: func(m *MockCouponService) {
				m.On("OwnsCoupon", mock.Anything, int64(42), int64(10)).Return(errForeign)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "異常系: coupon_idが負数",
			path:           "/api/v1/coupons/-1",
			body:           `{}`,
			setupMock:      func(m *MockCouponService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			couponSvc := new(MockCouponService)
			tt.setupMock(couponSvc)
			e := newCouponHandlerEcho(couponSvc, new(MockCouponPurchaseService), 42)

			rec := serve(e, http.MethodPut, tt.path, tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				body := decodeBody(t, rec.Body.Bytes())
				assert.Equal(t, "RATE", body["discount_type"])
				assert.Equal(t, float64(15), body["discount_value"])
			}
			couponSvc.AssertExpectations(t)
		})
	}
}

func TestCouponHandler_Delete(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockCouponService)
		expectedStatus int
	}{
		{
			name: "正常系: 削除成功",
			setupMock: func(m *MockCouponService) {
				m.On("OwnsCoupon", mock.Anything, int64(42), int64(10)).Return(nil)
				m.On("Delete", mock.Anything, int64(10)).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name: "異常系: 存在しないクーポン",
			setupMock: func(m *MockCouponService) {
				m.On("OwnsCoupon", mock.Anything, int64(42), int64(10)).Return(coupon.ErrCouponNotFound)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "異常系: 他の事業者のクーポン",
			setupMock: func(m *MockCouponService) {
				m.On("OwnsCoupon", mock.Anything, int64(42), int64(10)).Return(errForeign)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			couponSvc := new(MockCouponService)
			tt.setupMock(couponSvc)
			e := newCouponHandlerEcho(couponSvc, new(MockCouponPurchaseService), 42)

			rec := serve(e, http.MethodDelete, "/api/v1/coupons/10", "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			couponSvc.AssertExpectations(t)
		})
	}
}
