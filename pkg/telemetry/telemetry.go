package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/steemit/agora/pkg/config"
	"github.com/steemit/agora/pkg/logging"
)

const instrumentationName = "github.com/steemit/agora"

// Version is stamped at build time with -ldflags "-X github.com/steemit/agora/pkg/telemetry.Version=..."
var Version = "dev"

var tracer trace.Tracer

type shutdownFunc func(context.Context) error

// Init installs the global tracer and meter providers. The returned func
// flushes and closes every exporter that was started.
func Init(cfg *config.TelemetryConfig) (func(), error) {
	logger := logging.WithComponent("telemetry")
	if !cfg.Enabled {
		logger.Info("Telemetry disabled")
		return func() {}, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var closers []shutdownFunc
	if cfg.JaegerURL != "" {
		closer, err := installTracing(cfg.JaegerURL, res)
		if err != nil {
			return nil, err
		}
		closers = append(closers, closer)
		logger.Info("Jaeger exporter initialized", zap.String("url", cfg.JaegerURL))
	}
	if cfg.PrometheusEnabled {
		closer, err := installMetrics(res)
		if err != nil {
			return nil, err
		}
		closers = append(closers, closer)
		logger.Info("Prometheus exporter initialized")
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracer = otel.Tracer(instrumentationName)
	initInstruments()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, closeFn := range closers {
			if err := closeFn(ctx); err != nil {
				logger.Error("Error shutting down telemetry", zap.Error(err))
			}
		}
	}, nil
}

// installTracing batches spans to a Jaeger collector. Sampling follows the
// caller's decision when a parent span arrives with the request.
func installTracing(endpoint string, res *resource.Resource) (shutdownFunc, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// installMetrics registers a reader with the default prometheus registry,
// which cmd/server exposes on /metrics.
func installMetrics(res *resource.Resource) (shutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Tracer returns the global tracer
func Tracer() trace.Tracer {
	if tracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return tracer
}

// StartSpan starts a new span
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}
