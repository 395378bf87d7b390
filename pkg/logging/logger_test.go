package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/steemit/agora/pkg/config"
)

func newTestLogger(buf *bytes.Buffer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:       "timestamp",
		LevelKey:      "level",
		MessageKey:    "message",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(NewFlatEncoder(encoderConfig), zapcore.AddSync(buf), zapcore.InfoLevel)
	return zap.New(core)
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON %q: %v", buf.String(), err)
	}
	return logObj
}

func TestInitLogger(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "INFO", Format: "json", Structured: true}
	if err := InitLogger(cfg); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("Expected global logger to be set")
	}
}

func TestFlatEncoder(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info("test message",
		zap.String("key", "value"),
		zap.Int64("post_id", 42),
		zap.Bool("published", true),
		zap.Error(errors.New("boom")))

	logObj := decode(t, &buf)

	if logObj["message"] != "test message" {
		t.Errorf("Expected message 'test message', got: %v", logObj["message"])
	}
	if logObj["key"] != "value" {
		t.Errorf("Expected field 'key'='value', got: %v", logObj["key"])
	}
	if logObj["post_id"] != float64(42) {
		t.Errorf("Expected post_id 42, got: %v", logObj["post_id"])
	}
	if logObj["published"] != true {
		t.Errorf("Expected published true, got: %v", logObj["published"])
	}
	if logObj["error"] != "boom" {
		t.Errorf("Expected error 'boom', got: %v", logObj["error"])
	}
	if _, ok := logObj["timestamp"]; !ok {
		t.Error("Expected 'timestamp' field in log output")
	}
}

func TestFlatEncoderKeepsContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf).With(zap.String("component", "reviews"), zap.Int64("community_id", 7))

	logger.Info("vote recorded")

	logObj := decode(t, &buf)
	if logObj["component"] != "reviews" {
		t.Errorf("Expected component from With(), got: %v", logObj["component"])
	}
	if logObj["community_id"] != float64(7) {
		t.Errorf("Expected community_id from With(), got: %v", logObj["community_id"])
	}
}

func TestFlatEncoderFloats(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf).With(zap.Float64("ratio", 0.5), zap.Duration("lease", 2*time.Minute))

	logger.Info("relay batch", zap.Float64("latency_ms", 12.25), zap.Float32("share", 0.75))

	logObj := decode(t, &buf)
	if logObj["latency_ms"] != 12.25 {
		t.Errorf("Expected latency_ms 12.25, got: %v", logObj["latency_ms"])
	}
	if logObj["share"] != 0.75 {
		t.Errorf("Expected share 0.75, got: %v", logObj["share"])
	}
	if logObj["ratio"] != 0.5 {
		t.Errorf("Expected ratio from With(), got: %v", logObj["ratio"])
	}
	if logObj["lease"] != "2m0s" {
		t.Errorf("Expected lease from With(), got: %v", logObj["lease"])
	}
}

func TestFlatEncoderNaN(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(&buf).Info("odd", zap.Float64("value", math.NaN()))

	if got := decode(t, &buf)["value"]; got != "NaN" {
		t.Errorf("Expected NaN as a string, got: %v", got)
	}
}

func TestInitLoggerAddsService(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	for _, cfg := range []config.LoggingConfig{
		{Level: "DEBUG", Format: "text"},
		{Level: "INFO", Format: "json"},
		{Level: "bogus", Format: "json", Structured: true},
	} {
		if err := InitLogger(&cfg); err != nil {
			t.Fatalf("InitLogger(%+v): %v", cfg, err)
		}
	}
	if !Logger.Core().Enabled(zapcore.InfoLevel) || Logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected unknown level to fall back to info")
	}
}

func TestForRequest(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()
	var buf bytes.Buffer
	Logger = newTestLogger(&buf)

	ForRequest(context.Background(), "req-1").Info("no span")
	logObj := decode(t, &buf)
	if logObj["request_id"] != "req-1" {
		t.Errorf("Expected request_id, got: %v", logObj["request_id"])
	}
	if _, ok := logObj["trace_id"]; ok {
		t.Error("Expected no trace_id without a span")
	}

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "request")
	defer span.End()

	buf.Reset()
	ForRequest(ctx, "req-2").Info("with span")
	logObj = decode(t, &buf)
	if logObj["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("Expected trace_id of the active span, got: %v", logObj["trace_id"])
	}
	if logObj["span_id"] != span.SpanContext().SpanID().String() {
		t.Errorf("Expected span_id of the active span, got: %v", logObj["span_id"])
	}
}
