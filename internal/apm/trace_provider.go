// Package apm installs the OpenTelemetry tracer provider and the span helpers
// the venue adapters and the API use.
package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/venue-arbitrage/internal/logger"
)

type Provider string

const (
	NewRelicProvider  Provider = "NEWRELIC_PROVIDER"
	ZipkinProvider    Provider = "ZIPKIN_PROVIDER"
	HoneycombProvider Provider = "HONEYCOMB_PROVIDER"
	OTLPProvider      Provider = "OTLP_PROVIDER"
	ConsoleProvider   Provider = "CONSOLE_PROVIDER"
	EmptyProvider     Provider = "EMPTY_PROVIDER"
)

const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http/protobuf"
)

// ParseProvider accepts "zipkin" as well as "ZIPKIN_PROVIDER". Unknown
// names map to EmptyProvider.
func ParseProvider(name string) Provider {
	switch strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(name)), "_PROVIDER") {
	case "NEWRELIC":
		return NewRelicProvider
	case "ZIPKIN":
		return ZipkinProvider
	case "HONEYCOMB":
		return HoneycombProvider
	case "OTLP":
		return OTLPProvider
	case "CONSOLE", "STDOUT":
		return ConsoleProvider
	default:
		return EmptyProvider
	}
}

// ExporterConfig selects and configures the span exporter.
type ExporterConfig struct {
	Provider    Provider
	ServiceName string
	Endpoint    string            // collector URL
	Headers     map[string]string // e.g. x-honeycomb-team, api-key
	Protocol    string            // ProtocolGRPC or ProtocolHTTP; empty picks the provider default
	SampleRatio float64           // in (0,1) samples that fraction of root spans, otherwise all
}

// TraceProvider flushes and stops the installed provider.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

func (p *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.tp.Shutdown(ctx)
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

// NewTraceProvider installs the global tracer provider and W3C propagators.
// Tracing stays off (the otel no-op provider) when the provider is empty or
// its exporter cannot be built.
func NewTraceProvider(ctx context.Context, cfg ExporterConfig, log logger.LoggerInterface) TraceProvider {
	if cfg.Provider == "" || cfg.Provider == EmptyProvider {
		return emptyTraceProvider{}
	}

	exp, err := newExporter(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "trace exporter setup failed, tracing disabled", "provider", cfg.Provider, "error", err)
		return emptyTraceProvider{}
	}

	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.ServiceName),
		attribute.String("otel.provider", string(cfg.Provider)),
	))

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &traceProvider{tp: tp}
}

func newExporter(ctx context.Context, cfg ExporterConfig, log logger.LoggerInterface) (sdktrace.SpanExporter, error) {
	switch cfg.Provider {
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ZipkinProvider:
		return zipkin.New(cfg.Endpoint)
	case NewRelicProvider:
		if cfg.Headers["api-key"] == "" {
			log.Warn(ctx, "new relic exporter has no api-key header")
		}
		return otlpExporter(ctx, cfg, ProtocolGRPC)
	case HoneycombProvider:
		if cfg.Headers["x-honeycomb-team"] == "" {
			log.Warn(ctx, "honeycomb exporter has no x-honeycomb-team header")
		}
		return otlpExporter(ctx, cfg, ProtocolGRPC)
	case OTLPProvider:
		return otlpExporter(ctx, cfg, ProtocolHTTP)
	}
	return nil, fmt.Errorf("unknown trace provider %q", cfg.Provider)
}

func otlpExporter(ctx context.Context, cfg ExporterConfig, defaultProtocol string) (sdktrace.SpanExporter, error) {
	protocol := cfg.Protocol
	if protocol == "" {
		protocol = defaultProtocol
	}
	if protocol == ProtocolGRPC {
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(cfg.Endpoint),
			otlptracegrpc.WithHeaders(cfg.Headers))
	}
	return otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.Endpoint),
		otlptracehttp.WithHeaders(cfg.Headers))
}
