package logging

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/steemit/agora/pkg/config"
)

// serviceName tags every line written by the global logger
const serviceName = "agora"

// Logger is the application logger
var Logger *zap.Logger

// InitLogger initializes the logger with the given configuration. "text"
// selects the colored development console; "json" the production encoder,
// or the flat encoder when Structured is set.
func InitLogger(cfg *config.LoggingConfig) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", serviceName)),
	}

	switch {
	case cfg.Format == "text":
		zapConfig := zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(level)
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return build(zapConfig, opts)
	case cfg.Structured:
		Logger = zap.New(zapcore.NewCore(NewFlatEncoder(flatEncoderConfig()), zapcore.AddSync(os.Stdout), level), opts...)
		return nil
	default:
		zapConfig := zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(level)
		return build(zapConfig, opts)
	}
}

func build(zapConfig zap.Config, opts []zap.Option) error {
	logger, err := zapConfig.Build(opts...)
	if err != nil {
		return err
	}
	Logger = logger
	return nil
}

func flatEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return encoderConfig
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	if Logger == nil {
		Logger, _ = zap.NewProduction()
	}
	return Logger
}

// WithContext adds context fields to logger
func WithContext(fields ...zap.Field) *zap.Logger {
	return GetLogger().With(fields...)
}

// WithRequest tags log lines with the inbound request id
func WithRequest(requestID string) *zap.Logger {
	return GetLogger().With(zap.String("request_id", requestID))
}

// ForRequest is WithRequest plus the trace and span ids of the span carried
// by ctx, when there is a recording one.
func ForRequest(ctx context.Context, requestID string) *zap.Logger {
	logger := WithRequest(requestID)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// WithComponent adds component name to logger
func WithComponent(component string) *zap.Logger {
	return GetLogger().With(zap.String("component", component))
}
