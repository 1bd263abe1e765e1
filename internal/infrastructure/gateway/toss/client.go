package toss

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"lodging-backoffice/internal/domain/payment_gateway"
	"lodging-backoffice/internal/infrastructure/config"
	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
)

const maxResponseBytes = 1 << 20

// idempotencyNamespace Idempotency-Keyを導出するUUID名前空間
var idempotencyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://api.tosspayments.com/v1/payments"))

// idempotencyKey 同じ操作と対象からは常に同じキーを返す
func idempotencyKey(operation, subject string) string {
	return uuid.NewSHA1(idempotencyNamespace, []byte(operation+":"+subject)).String()
}

// Client Toss Payments APIクライアント
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
	metrics    *otelinfra.Metrics
	tracer     trace.Tracer
}

// NewClient 新しいClientを作成
func NewClient(cfg *config.PaymentGatewayConfig, metrics *otelinfra.Metrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.SecretKey+":")),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		metrics: metrics,
		tracer:  otel.Tracer("toss-payments-client"),
	}
}

type confirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	Amount     int64  `json:"amount"`
	OrderID    string `json:"orderId"`
}

type cancelRequest struct {
	CancelReason string `json:"cancelReason"`
}

type paymentResponse struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	TotalAmount int64  `json:"totalAmount"`
	ApprovedAt  string `json:"approvedAt"`
	Cancels     []struct {
		CanceledAt string `json:"canceledAt"`
	} `json:"cancels"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConfirmCharge 決済を承認
func (c *Client) ConfirmCharge(ctx context.Context, paymentKey string, amount int64, orderID string) (*payment_gateway.ChargeResult, error) {
	body := confirmRequest{PaymentKey: paymentKey, Amount: amount, OrderID: orderID}
	return c.call(ctx, "confirm", c.baseURL+"/confirm", idempotencyKey("confirm", orderID), body)
}

// CancelCharge 決済を取り消し
func (c *Client) CancelCharge(ctx context.Context, paymentKey, reason string) (*payment_gateway.ChargeResult, error) {
	body := cancelRequest{CancelReason: reason}
	return c.call(ctx, "cancel", c.baseURL+"/"+url.PathEscape(paymentKey)+"/cancel", idempotencyKey("cancel", paymentKey), body)
}

func (c *Client) call(ctx context.Context, operation, endpoint, key string, payload interface{}) (result *payment_gateway.ChargeResult, err error) {
	ctx, span := c.tracer.Start(ctx, "TossClient."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("http.url", endpoint),
		attribute.String("http.method", http.MethodPost),
		attribute.String("gateway.operation", operation),
	)

	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		} else {
			span.SetStatus(otelcodes.Ok, "gateway call succeeded")
		}
		c.metrics.RecordGatewayCall(ctx, operation, outcome, time.Since(start).Seconds())
	}()

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", payment_gateway.ErrGatewayError, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", payment_gateway.ErrGatewayError, err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment_gateway.ErrGatewayError, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", payment_gateway.ErrGatewayError, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		if jsonErr := json.Unmarshal(raw, &e); jsonErr == nil && e.Code != "" {
			return nil, fmt.Errorf("%w: status %d: %s: %s", payment_gateway.ErrGatewayError, resp.StatusCode, e.Code, e.Message)
		}
		return nil, fmt.Errorf("%w: status %d", payment_gateway.ErrGatewayError, resp.StatusCode)
	}

	var pr paymentResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", payment_gateway.ErrGatewayError, err)
	}

	return toChargeResult(&pr)
}

func toChargeResult(pr *paymentResponse) (*payment_gateway.ChargeResult, error) {
	approvedAt, err := time.Parse(time.RFC3339, pr.ApprovedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid approvedAt %q", payment_gateway.ErrGatewayError, pr.ApprovedAt)
	}

	result := &payment_gateway.ChargeResult{
		PaymentKey:  pr.PaymentKey,
		OrderID:     pr.OrderID,
		TotalAmount: pr.TotalAmount,
		ApprovedAt:  approvedAt,
	}

	// 最後の取消が今回の取消
	if n := len(pr.Cancels); n > 0 && pr.Cancels[n-1].CanceledAt != "" {
		canceledAt, err := time.Parse(time.RFC3339, pr.Cancels[n-1].CanceledAt)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid canceledAt %q", payment_gateway.ErrGatewayError, pr.Cancels[n-1].CanceledAt)
		}
		result.CanceledAt = canceledAt
	}

	return result, nil
}
