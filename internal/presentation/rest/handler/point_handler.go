package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	pointapp "lodging-backoffice/internal/application/point"
	"lodging-backoffice/internal/domain/point"

	"github.com/labstack/echo/v4"
)

// PointService ポイントハンドラーが利用するアプリケーションサービス
type PointService interface {
	GetOrCreateBalance(ctx context.Context, operatorID int64) (*point.Point, error)
	MonthlySummary(ctx context.Context, operatorID int64, month point.YearMonth) (*pointapp.MonthlySummary, error)
	ChargeConfirm(ctx context.Context, operatorID int64, req *pointapp.ChargeRequest) (*point.PointCharge, error)
	ListCharges(ctx context.Context, operatorID int64, limit, offset int) (*pointapp.ChargePage, error)
	GetCharge(ctx context.Context, chargeID int64) (*pointapp.ChargeDetail, error)
	OwnsCharge(ctx context.Context, operatorID, chargeID int64) error
	Refund(ctx context.Context, chargeID int64) (*point.PointRefund, error)
	ReconcileBalance(ctx context.Context, operatorID int64) (*pointapp.ReconcileResult, error)
}

// PointHandler ポイント関連ハンドラー
type PointHandler struct {
	pointService PointService
	now          func() time.Time
}

// NewPointHandler 新しいPointHandlerを作成
func NewPointHandler(pointService PointService) *PointHandler {
	return &PointHandler{
		pointService: pointService,
		now:          time.Now,
	}
}

// GetBalance 残高取得ハンドラー
func (h *PointHandler) GetBalance(c echo.Context) error {
	operatorID, err := operatorFromToken(c)
	if err != nil {
		return err
	}

	p, err := h.pointService.GetOrCreateBalance(c.Request().Context(), operatorID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		OperatorID: p.OperatorID(),
		Balance:    strconv.FormatInt(p.Balance(), 10),
	})
}

// GetMonthlySummary 月次集計ハンドラー（monthを省略した場合は当月）
func (h *PointHandler) GetMonthlySummary(c echo.Context) error {
	operatorID, err := operatorFromToken(c)
	if err != nil {
		return err
	}

	month := point.YearMonthOf(h.now())
	if m := c.QueryParam("month"); m != "" {
		month, err = point.ParseYearMonth(m)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "month must be in YYYY-MM format")
		}
	}

	summary, err := h.pointService.MonthlySummary(c.Request().Context(), operatorID, month)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MonthlySummaryResponse{
		Month:   summary.Month.String(),
		Charged: strconv.FormatInt(summary.Charged, 10),
		Used:    strconv.FormatInt(summary.Used, 10),
		Net:     strconv.FormatInt(summary.Net, 10),
	})
}

// ConfirmCharge 決済承認によるポイント充電ハンドラー
func (h *PointHandler) ConfirmCharge(c echo.Context) error {
	operatorID, err := operatorFromToken(c)
	if err != nil {
		return err
	}

	var reqBody ChargeConfirmRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	amount, err := strconv.ParseInt(reqBody.Amount, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid amount format")
	}

	charge, err := h.pointService.ChargeConfirm(c.Request().Context(), operatorID, &pointapp.ChargeRequest{
		PaymentKey:  reqBody.PaymentKey,
		OrderID:     reqBody.OrderID,
		Amount:      amount,
		PaymentName: reqBody.PaymentName,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toChargeResponse(charge))
}

// ListCharges 充電履歴一覧ハンドラー
func (h *PointHandler) ListCharges(c echo.Context) error {
	operatorID, err := operatorFromToken(c)
	if err != nil {
		return err
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}

	page, err := h.pointService.ListCharges(c.Request().Context(), operatorID, limit, offset)
	if err != nil {
		return err
	}

	items := make([]ChargeDetailResponse, len(page.Items))
	for i := range page.Items {
		items[i] = toChargeDetailResponse(&page.Items[i])
	}

	return c.JSON(http.StatusOK, ChargeListResponse{
		Items:  items,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// GetCharge 充電履歴詳細ハンドラー
func (h *PointHandler) GetCharge(c echo.Context) error {
	operatorID, err := operatorFromToken(c)
	if err != nil {
		return err
	}
	chargeID, err := pathID(c, "charge_id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.pointService.OwnsCharge(ctx, operatorID, chargeID); err != nil {
		return err
	}

	detail, err := h.pointService.GetCharge(ctx, chargeID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toChargeDetailResponse(detail))
}

// RefundCharge 充電の返金ハンドラー
func (h *PointHandler) RefundCharge(c echo.Context) error {
	operatorID, err := operatorFromToken(c)
	if err != nil {
		return err
	}
	chargeID, err := pathID(c, "charge_id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.pointService.OwnsCharge(ctx, operatorID, chargeID); err != nil {
		return err
	}

	refund, err := h.pointService.Refund(ctx, chargeID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, RefundResponse{
		RefundID:   refund.ID(),
		ChargeID:   refund.ChargeID(),
		RefundedAt: refund.RefundedAt(),
	})
}

// ReconcileBalance 残高再計算ハンドラー（管理API用）
func (h *PointHandler) ReconcileBalance(c echo.Context) error {
	operatorID, err := pathID(c, "operator_id")
	if err != nil {
		return err
	}

	result, err := h.pointService.ReconcileBalance(c.Request().Context(), operatorID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ReconcileResponse{
		OperatorID: result.OperatorID,
		Before:     strconv.FormatInt(result.Before, 10),
		After:      strconv.FormatInt(result.After, 10),
		Drift:      strconv.FormatInt(result.Drift, 10),
	})
}

func toChargeResponse(charge *point.PointCharge) ChargeResponse {
	return ChargeResponse{
		ChargeID:       charge.ID(),
		PaymentKey:     charge.PaymentKey(),
		PaymentName:    charge.PaymentName(),
		OrderName:      charge.OrderName(),
		Amount:         strconv.FormatInt(charge.Amount(), 10),
		Status:         charge.Status().String(),
		Refundable:     charge.Refundable(),
		ChargedAt:      charge.ChargedAt(),
		RefundDeadline: charge.RefundDeadline(),
	}
}

func toChargeDetailResponse(detail *pointapp.ChargeDetail) ChargeDetailResponse {
	receipts := make([]ReceiptResponse, len(detail.Receipts))
	for i, r := range detail.Receipts {
		receipts[i] = ReceiptResponse{
			OrderName: r.OrderName,
			TradeAt:   r.TradeAt,
			Amount:    strconv.FormatInt(r.Amount, 10),
		}
	}
	return ChargeDetailResponse{
		Charge:        toChargeResponse(detail.Charge),
		Category:      detail.Category.String(),
		CategoryLabel: detail.CategoryLabel,
		Type:          string(detail.Type),
		TypeLabel:     detail.TypeLabel,
		Receipts:      receipts,
	}
}
