// Package tracing настраивает OpenTelemetry tracer provider процесса.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Mode — куда отправлять спаны.
type Mode string

const (
	ModeOff    Mode = "off"
	ModeStdout Mode = "stdout"
	ModeOTLP   Mode = "otlp"
)

// ParseMode разбирает значение STOREFRONT_TRACING; пустая строка — off.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeOff:
		return ModeOff, nil
	case ModeStdout:
		return ModeStdout, nil
	case ModeOTLP:
		return ModeOTLP, nil
	default:
		return ModeOff, fmt.Errorf("unsupported tracing mode %q", raw)
	}
}

// ShutdownFunc сбрасывает накопленные спаны.
type ShutdownFunc func(ctx context.Context) error

// Options — параметры инициализации.
type Options struct {
	ServiceName string
	Version     string
	Mode        Mode
	// Writer — вывод stdout-экспортёра; nil означает os.Stdout.
	Writer io.Writer
	Logger *log.Entry
}

// Init регистрирует глобальный tracer provider и propagator. В режиме off
// ничего не регистрируется: otelgin работает с no-op провайдером.
func Init(ctx context.Context, opts Options) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if opts.Mode == "" || opts.Mode == ModeOff {
		return noop, nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	logger = logger.WithField("component", "tracing")

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", opts.ServiceName),
			attribute.String("service.version", opts.Version),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("build tracing resource: %w", err)
	}

	exporter, err := newExporter(ctx, opts)
	if err != nil {
		return noop, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.WithField("mode", opts.Mode).Info("tracing enabled")
	return provider.Shutdown, nil
}

func newExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Mode {
	case ModeStdout:
		writer := opts.Writer
		if writer == nil {
			writer = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(writer))
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		return exporter, nil
	case ModeOTLP:
		// Endpoint и заголовки берутся из OTEL_EXPORTER_OTLP_* переменных окружения.
		var httpOpts []otlptracehttp.Option
		if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") != "0" {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp trace exporter: %w", err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("unsupported tracing mode %q", opts.Mode)
	}
}
