package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// ポイント台帳の記帳数（charge/use/refund）
	LedgerEntryCount metric.Int64Counter

	// 操作後のポイント残高の分布
	PointBalance metric.Int64Histogram

	// 残高再計算で検出したずれ
	BalanceDriftCount metric.Int64Counter

	// クーポン在庫の増減量
	CouponStockChange metric.Int64Counter

	// 決済代行の呼び出し数
	GatewayCallCount metric.Int64Counter

	// 決済代行の応答時間
	GatewayLatency metric.Float64Histogram

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	ledgerEntryCount, err := meter.Int64Counter(
		"point_ledger_entries_total",
		metric.WithDescription("Total number of point ledger entries"),
	)
	if err != nil {
		return nil, err
	}

	pointBalance, err := meter.Int64Histogram(
		"point_balance",
		metric.WithDescription("Point balance after a ledger operation"),
		metric.WithExplicitBucketBoundaries(0, 10000, 50000, 100000, 500000, 1000000, 5000000),
	)
	if err != nil {
		return nil, err
	}

	balanceDriftCount, err := meter.Int64Counter(
		"point_balance_drift_total",
		metric.WithDescription("Total number of balance drifts corrected by recomputation"),
	)
	if err != nil {
		return nil, err
	}

	couponStockChange, err := meter.Int64Counter(
		"coupon_stock_changes_total",
		metric.WithDescription("Total coupon stock quantity changed"),
	)
	if err != nil {
		return nil, err
	}

	gatewayCallCount, err := meter.Int64Counter(
		"payment_gateway_calls_total",
		metric.WithDescription("Total number of payment gateway calls"),
	)
	if err != nil {
		return nil, err
	}

	gatewayLatency, err := meter.Float64Histogram(
		"payment_gateway_duration_seconds",
		metric.WithDescription("Payment gateway call duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		LedgerEntryCount:  ledgerEntryCount,
		PointBalance:      pointBalance,
		BalanceDriftCount: balanceDriftCount,
		CouponStockChange: couponStockChange,
		GatewayCallCount:  gatewayCallCount,
		GatewayLatency:    gatewayLatency,
		RequestCount:      requestCount,
		ResponseTime:      responseTime,
		ErrorCount:        errorCount,
	}, nil
}

// RecordLedgerEntry 台帳への記帳を記録
func (m *Metrics) RecordLedgerEntry(ctx context.Context, entryType string) {
	m.LedgerEntryCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("entry_type", entryType),
		),
	)
}

// RecordPointBalance 操作後のポイント残高を記録（operation: balance, charge, use, refund, reconcile）
// 事業者IDは属性にしない
func (m *Metrics) RecordPointBalance(ctx context.Context, operation string, balance int64) {
	m.PointBalance.Record(ctx, balance,
		metric.WithAttributes(
			attribute.String("operation", operation),
		),
	)
}

// RecordBalanceDrift 残高のずれを記録
func (m *Metrics) RecordBalanceDrift(ctx context.Context) {
	m.BalanceDriftCount.Add(ctx, 1)
}

// RecordCouponStock クーポン在庫の増減を記録（operation: issue, restock, consume）
func (m *Metrics) RecordCouponStock(ctx context.Context, operation string, quantity int) {
	m.CouponStockChange.Add(ctx, int64(quantity),
		metric.WithAttributes(
			attribute.String("operation", operation),
		),
	)
}

// RecordGatewayCall 決済代行の呼び出しを記録
func (m *Metrics) RecordGatewayCall(ctx context.Context, operation, outcome string, duration float64) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	m.GatewayCallCount.Add(ctx, 1, attrs)
	m.GatewayLatency.Record(ctx, duration, attrs)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
