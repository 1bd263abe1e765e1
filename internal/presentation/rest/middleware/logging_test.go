package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
)

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		operatorID  int64
		handler     echo.HandlerFunc
		wantErr     bool
		wantLevel   string
		wantMessage string
		wantStatus  float64
	}{
		{
			name:       "正常系: 完了ログに事業者IDとリクエストIDを含む",
			operatorID: 42,
			handler: func(c echo.Context) error {
				c.Response().Header().Set(echo.HeaderXRequestID, "req-1")
				return c.String(http.StatusCreated, "created")
			},
			wantLevel:   "info",
			wantMessage: "HTTP request completed",
			wantStatus:  http.StatusCreated,
		},
		{
			name: "正常系: 5xxはwarn",
			handler: func(c echo.Context) error {
				return c.String(http.StatusBadGateway, "bad gateway")
			},
			wantLevel:   "warn",
			wantMessage: "HTTP request completed with server error",
			wantStatus:  http.StatusBadGateway,
		},
		{
			name: "異常系: ハンドラーのエラーはerror",
			handler: func(c echo.Context) error {
				return errors.New("test error")
			},
			wantErr:     true,
			wantLevel:   "error",
			wantMessage: "HTTP request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"), otelinfra.WithOutput(&buf))

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/api/v1/coupons")
			if tt.operatorID > 0 {
				c.Set(OperatorIDKey, tt.operatorID)
			}

			err := LoggingMiddleware(logger)(tt.handler)(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			// 開始ログはdebugなのでinfoレベルでは出力されない
			entries := decodeLogLines(t, &buf)
			require.Len(t, entries, 1)
			entry := entries[0]
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMessage, entry["message"])

			fields, ok := entry["fields"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, "/api/v1/coupons", fields["route"])
			if !tt.wantErr {
				assert.Equal(t, tt.wantStatus, fields["status_code"])
			}
			if tt.operatorID > 0 {
				assert.Equal(t, float64(tt.operatorID), fields["operator_id"])
				assert.Equal(t, "req-1", fields["request_id"])
			} else {
				assert.NotContains(t, fields, "operator_id")
			}
		})
	}
}

func TestLoggingMiddleware_DebugLevelLogsStart(t *testing.T) {
	var buf bytes.Buffer
	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"),
		otelinfra.WithOutput(&buf), otelinfra.WithLevel("debug"))

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), httptest.NewRecorder())

	err := LoggingMiddleware(logger)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	require.NoError(t, err)

	entries := decodeLogLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "HTTP request started", entries[0]["message"])
	assert.Equal(t, "HTTP request completed", entries[1]["message"])
}
