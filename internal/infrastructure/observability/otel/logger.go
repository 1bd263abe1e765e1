package otel

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 構造化ロガー（zerologでJSON出力し、トレースIDとSpanIDを付与する）
type Logger struct {
	tracer trace.Tracer
	zl     zerolog.Logger
}

// LoggerOption Loggerのオプション
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	out   io.Writer
	level zerolog.Level
}

// WithOutput 出力先を指定
func WithOutput(w io.Writer) LoggerOption {
	return func(o *loggerOptions) {
		o.out = w
	}
}

// WithLevel 出力する最小レベルを指定（"debug", "info", "warn", "error"）
// 解釈できない値はinfoとして扱う
func WithLevel(level string) LoggerOption {
	return func(o *loggerOptions) {
		lvl, err := zerolog.ParseLevel(level)
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}
		o.level = lvl
	}
}

// NewLogger 新しいLoggerを作成
func NewLogger(tracer trace.Tracer, opts ...LoggerOption) *Logger {
	o := &loggerOptions{
		out:   os.Stdout,
		level: zerolog.InfoLevel,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Logger{
		tracer: tracer,
		zl:     zerolog.New(o.out).Level(o.level).With().Timestamp().Logger(),
	}
}

// LogLevel ログレベル
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Log ログを出力
func (l *Logger) Log(ctx context.Context, level LogLevel, message string, fields map[string]interface{}) {
	ev := l.zl.WithLevel(level.zerolog())
	if ev == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ev = ev.
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String())
	}

	if len(fields) > 0 {
		ev = ev.Interface("fields", fields)
	}

	ev.Msg(message)
}

// Debug Debugレベルのログを出力
func (l *Logger) Debug(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelDebug, message, fields)
}

// Info Infoレベルのログを出力
func (l *Logger) Info(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelInfo, message, fields)
}

// Warn Warnレベルのログを出力
func (l *Logger) Warn(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelWarn, message, fields)
}

// Error Errorレベルのログを出力
func (l *Logger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	if err != nil {
		merged["error"] = err.Error()
	}
	l.Log(ctx, LogLevelError, message, merged)
}
