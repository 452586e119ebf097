// Package metrics wires the OpenTelemetry meter provider and the Prometheus
// scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/venue-arbitrage/internal/logger"
)

type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

func newReader(ctx context.Context, r Reader, interval time.Duration) (sdkmetric.Reader, error) {
	switch r.Exporter {
	case ExporterPrometheus:
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		return exp, nil
	case ExporterOTLP:
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(r.Endpoint),
			otlpmetricgrpc.WithHeaders(r.Headers),
		}
		if r.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)), nil
	default:
		return nil, fmt.Errorf("unknown metric exporter %q", r.Exporter)
	}
}

// NewMetricProvider builds a meter provider with one reader per option and
// installs it globally. Without readers, instruments record into nothing.
func NewMetricProvider(ctx context.Context, opts ...Option) (MetricProvider, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	providerOpts := []sdkmetric.Option{
		sdkmetric.WithResource(resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName))),
	}
	for _, r := range cfg.Readers {
		reader, err := newReader(ctx, r, cfg.interval())
		if err != nil {
			return nil, err
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// ScrapeServer serves /metrics for Prometheus.
type ScrapeServer struct {
	port   int
	log    logger.LoggerInterface
	server *http.Server
	addr   net.Addr
}

func NewScrapeServer(port int, log logger.LoggerInterface) *ScrapeServer {
	if port == 0 {
		port = 9090
	}
	return &ScrapeServer{port: port, log: log}
}

// Start binds the port and serves in the background.
func (s *ScrapeServer) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("metrics listen on :%d: %w", s.port, err)
	}
	s.addr = ln.Addr()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "metrics server stopped", "error", err)
		}
	}()
	s.log.Info(context.Background(), "serving metrics", "addr", s.addr.String()+"/metrics")
	return nil
}

// Addr is the bound address once started.
func (s *ScrapeServer) Addr() net.Addr {
	return s.addr
}

func (s *ScrapeServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
