package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	couponapp "lodging-backoffice/internal/application/coupon"
	purchaseapp "lodging-backoffice/internal/application/coupon_purchase"
	"lodging-backoffice/internal/domain/coupon"

	"github.com/labstack/echo/v4"
)

// CouponService クーポンハンドラーが利用するアプリケーションサービス
type CouponService interface {
	ListByAccommodation(ctx context.Context, accommodationID int64) (*couponapp.ManageView, error)
	Modify(ctx context.Context, req *couponapp.ModifyCouponRequest) (*coupon.Coupon, error)
	Delete(ctx context.Context, couponID int64) error
	OwnsAccommodation(ctx context.Context, operatorID, accommodationID int64) error
	OwnsRoom(ctx context.Context, operatorID, roomID int64) error
	OwnsCoupon(ctx context.Context, operatorID, couponID int64) error
}

// CouponPurchaseService ポイントによるクーポン購入サービス
type CouponPurchaseService interface {
	Purchase(ctx context.Context, req *purchaseapp.PurchaseRequest) ([]*coupon.Coupon, error)
	AddOn(ctx context.Context, req *purchaseapp.AddOnRequest) ([]*coupon.Coupon, error)
}

// CouponHandler クーポン関連ハンドラー
type CouponHandler struct {
	couponService   CouponService
	purchaseService CouponPurchaseService
}

// NewCouponHandler 新しいCouponHandlerを作成
func NewCouponHandler(couponService CouponService, purchaseService CouponPurchaseService) *CouponHandler {
	return &CouponHandler{
		couponService:   couponService,
		purchaseService: purchaseService,
	}
}

// ListByAccommodation 宿泊施設のクーポン管理画面ハンドラー
func (h *CouponHandler) ListByAccommodation(c echo.Context) error {
	operatorID, err := operatorFromToken(c)
	if err != nil {
		return err
	}
	accommodationID, err := pathID(c, "accommodation_id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.couponService.OwnsAccommodation(ctx, operatorID, accommodationID); err != nil {
		return err
	}

	view, err := h.couponService.ListByAccommodation(ctx, accommodationID)
	if err != nil {
		return err
	}

	resp := ManageViewResponse{
		AccommodationID:   view.AccommodationID,
		AccommodationName: view.AccommodationName,
		ExpiryDate:        formatDate(view.ExpiryDate),
		Rooms:             make([]RoomCouponsResponse, len(view.Rooms)),
	}
	for i, rm := range view.Rooms {
		coupons := make([]CouponViewResponse, len(rm.Coupons))
		for j, cv := range rm.Coupons {
			coupons[j] = CouponViewResponse{
				CouponID:      cv.CouponID,
				Status:        cv.Status,
				DiscountType:  cv.DiscountType,
				DiscountValue: cv.DiscountValue,
				CouponName:    cv.CouponName,
				AppliedPrice:  strconv.FormatInt(cv.AppliedPrice, 10),
				Stock:         cv.Stock,
				CouponType:    cv.CouponType,
				DayLimit:      cv.DayLimit,
				EndDate:       formatDate(cv.EndDate),
			}
		}
		resp.Rooms[i] = RoomCouponsResponse{
			RoomID:    rm.RoomID,
			RoomName:  rm.RoomName,
			RoomPrice: strconv.FormatInt(rm.RoomPrice, 10),
			Coupons:   coupons,
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// Purchase ポイントによるクーポン購入ハンドラー
func (h *CouponHandler) Purchase(c echo.Context) error {
	operatorID, err := operatorFromToken(c)
	if err != nil {
		return err
	}

	var reqBody PurchaseCouponsRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	totalCost, err := strconv.ParseInt(reqBody.TotalCost, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid total_cost format")
	}

	items := make([]purchaseapp.LineItem, len(reqBody.Items))
	for i, item := range reqBody.Items {
		endDate, err := parseDate(item.EndDate)
		if err != nil {
			return err
		}
		items[i] = purchaseapp.LineItem{
			RoomID:        item.RoomID,
			DiscountType:  item.DiscountType,
			DiscountValue: item.DiscountValue,
			Quantity:      item.Quantity,
			CouponType:    item.CouponType,
			DayLimit:      item.DayLimit,
			EndDate:       endDate,
		}
	}

	ctx := c.Request().Context()
	checked := make(map[int64]bool, len(items))
	for _, item := range items {
		if checked[item.RoomID] {
			continue
		}
		if err := h.couponService.OwnsRoom(ctx, operatorID, item.RoomID); err != nil {
			return err
		}
		checked[item.RoomID] = true
	}

	coupons, err := h.purchaseService.Purchase(ctx, &purchaseapp.PurchaseRequest{
		OperatorID: operatorID,
		TotalCost:  totalCost,
		Items:      items,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toPurchaseResponse(totalCost, coupons))
}

// AddOn 既存クーポンの在庫追加購入ハンドラー
func (h *CouponHandler) AddOn(c echo.Context) error {
	operatorID, err := operatorFromToken(c)
	if err != nil {
		return err
	}

	var reqBody AddOnCouponsRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	totalCost, err := strconv.ParseInt(reqBody.TotalCost, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid total_cost format")
	}

	items := make([]purchaseapp.AddOnItem, len(reqBody.Items))
	for i, item := range reqBody.Items {
		items[i] = purchaseapp.AddOnItem{CouponID: item.CouponID, Quantity: item.Quantity}
	}

	ctx := c.Request().Context()
	checked := make(map[int64]bool, len(items))
	for _, item := range items {
		if checked[item.CouponID] {
			continue
		}
		if err := h.couponService.OwnsCoupon(ctx, operatorID, item.CouponID); err != nil {
			return err
		}
		checked[item.CouponID] = true
	}

	coupons, err := h.purchaseService.AddOn(ctx, &purchaseapp.AddOnRequest{
		OperatorID: operatorID,
		TotalCost:  totalCost,
		Items:      items,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toPurchaseResponse(totalCost, coupons))
}

// Modify クーポン修正ハンドラー
func (h *CouponHandler) Modify(c echo.Context) error {
	operatorID, err := operatorFromToken(c)
	if err != nil {
		return err
	}
	couponID, err := pathID(c, "coupon_id")
	if err != nil {
		return err
	}

	var reqBody ModifyCouponRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	endDate, err := parseDate(reqBody.EndDate)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.couponService.OwnsCoupon(ctx, operatorID, couponID); err != nil {
		return err
	}

	cp, err := h.couponService.Modify(ctx, &couponapp.ModifyCouponRequest{
		CouponID:      couponID,
		Status:        reqBody.Status,
		DiscountType:  reqBody.DiscountType,
		DiscountValue: reqBody.DiscountValue,
		CouponType:    reqBody.CouponType,
		DayLimit:      reqBody.DayLimit,
		EndDate:       endDate,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toCouponResponse(cp))
}

// Delete クーポン削除ハンドラー
func (h *CouponHandler) Delete(c echo.Context) error {
	operatorID, err := operatorFromToken(c)
	if err != nil {
		return err
	}
	couponID, err := pathID(c, "coupon_id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.couponService.OwnsCoupon(ctx, operatorID, couponID); err != nil {
		return err
	}
	if err := h.couponService.Delete(ctx, couponID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func toCouponResponse(cp *coupon.Coupon) CouponResponse {
	return CouponResponse{
		CouponID:      cp.ID(),
		RoomID:        cp.RoomID(),
		Status:        cp.Status().String(),
		DiscountType:  cp.DiscountType().String(),
		DiscountValue: cp.DiscountValue(),
		Stock:         cp.Stock(),
		CouponType:    cp.CouponType().String(),
		DayLimit:      cp.DayLimit(),
		EndDate:       formatDate(cp.EndDate()),
	}
}

func toPurchaseResponse(totalCost int64, coupons []*coupon.Coupon) PurchaseResponse {
	resp := PurchaseResponse{
		TotalCost: strconv.FormatInt(totalCost, 10),
		Coupons:   make([]CouponResponse, len(coupons)),
	}
	for i, cp := range coupons {
		resp.Coupons[i] = toCouponResponse(cp)
	}
	return resp
}

// parseDate "2006-01-02" 形式の日付を解析（空文字の場合はゼロ値）
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
