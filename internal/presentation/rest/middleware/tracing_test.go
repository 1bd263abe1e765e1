package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useSpanRecorder テスト中だけ記録用のTracerProviderに差し替える
func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestTracingMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		route      string
		operatorID int64
		handler    echo.HandlerFunc
		wantErr    bool
		wantCode   otelcodes.Code
		wantStatus int64
	}{
		{
			name:       "正常系: ルート名でspanを作る",
			method:     http.MethodGet,
			route:      "/api/v1/points/balance",
			operatorID: 42,
			handler:    func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
			wantCode:   otelcodes.Unset,
			wantStatus: http.StatusOK,
		},
		{
			name:       "正常系: 4xxはエラーにしない",
			method:     http.MethodPost,
			route:      "/api/v1/coupons",
			handler:    func(c echo.Context) error { return c.String(http.StatusConflict, "conflict") },
			wantCode:   otelcodes.Unset,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "異常系: 5xxはエラー",
			method:     http.MethodPost,
			route:      "/api/v1/points/charges",
			handler:    func(c echo.Context) error { return c.String(http.StatusBadGateway, "bad gateway") },
			wantCode:   otelcodes.Error,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:     "異常系: ハンドラーのエラーを記録",
			method:   http.MethodDelete,
			route:    "/api/v1/coupons/:coupon_id",
			handler:  func(c echo.Context) error { return errors.New("test error") },
			wantErr:  true,
			wantCode: otelcodes.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := useSpanRecorder(t)

			e := echo.New()
			req := httptest.NewRequest(tt.method, tt.route, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath(tt.route)

			handler := tt.handler
			if tt.operatorID > 0 {
				handler = func(c echo.Context) error {
					c.Set(OperatorIDKey, tt.operatorID)
					return tt.handler(c)
				}
			}

			err := TracingMiddleware()(handler)(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, tt.method+" "+tt.route, span.Name())
			assert.Equal(t, tt.wantCode, span.Status().Code)

			attrs := spanAttrs(span)
			assert.Equal(t, tt.route, attrs["http.route"].AsString())
			if !tt.wantErr {
				assert.Equal(t, tt.wantStatus, attrs["http.status_code"].AsInt64())
			}
			if tt.operatorID > 0 {
				assert.Equal(t, tt.operatorID, attrs["operator.id"].AsInt64())
			} else {
				assert.NotContains(t, attrs, attribute.Key("operator.id"))
			}
		})
	}
}

func TestTracingMiddleware_ExtractsTraceContext(t *testing.T) {
	recorder := useSpanRecorder(t)

	parentCtx, parent := otel.Tracer("test").Start(context.Background(), "parent")
	parent.End()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	otel.GetTextMapPropagator().Inject(parentCtx, propagation.HeaderCarrier(req.Header))

	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/health")

	err := TracingMiddleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	server := spans[1]
	assert.Equal(t, parent.SpanContext().TraceID(), server.SpanContext().TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), server.Parent().SpanID())
}
