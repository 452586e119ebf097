package app

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/internal/apperror"
	"github.com/fd1az/venue-arbitrage/internal/asset"
	"github.com/fd1az/venue-arbitrage/internal/logger"
)

const (
	tracerName = "pricing"
	meterName  = "pricing"

	defaultQuoteTimeout = 5 * time.Second
)

type serviceMetrics struct {
	fetchLatency metric.Float64Histogram
	fetchErrors  metric.Int64Counter
}

// PricingService gathers quotes for an asset from every configured venue.
type PricingService struct {
	providers map[domain.Venue]QuoteProvider
	order     []domain.Venue
	assets    *asset.Registry
	timeout   time.Duration
	logger    logger.LoggerInterface

	tracer  trace.Tracer
	metrics *serviceMetrics
}

// NewPricingService creates a PricingService. timeout bounds one fetch round;
// zero means 5s.
func NewPricingService(providers []QuoteProvider, assets *asset.Registry, timeout time.Duration, log logger.LoggerInterface) (*PricingService, error) {
	if len(providers) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no quote providers configured"))
	}
	if timeout <= 0 {
		timeout = defaultQuoteTimeout
	}

	s := &PricingService{
		providers: make(map[domain.Venue]QuoteProvider, len(providers)),
		assets:    assets,
		timeout:   timeout,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	for _, p := range providers {
		if _, dup := s.providers[p.Venue()]; dup {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("duplicate provider for "+p.Venue().String()))
		}
		s.providers[p.Venue()] = p
		s.order = append(s.order, p.Venue())
	}

	if err := s.initMetrics(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PricingService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.fetchLatency, err = meter.Float64Histogram(
		"quote_fetch_latency_ms",
		metric.WithDescription("Venue quote fetch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.metrics.fetchErrors, err = meter.Int64Counter(
		"quote_fetch_errors_total",
		metric.WithDescription("Venue quote fetch failures"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Venues returns the configured venues in registration order.
func (s *PricingService) Venues() []domain.Venue {
	out := make([]domain.Venue, len(s.order))
	copy(out, s.order)
	return out
}

// ResolveAsset maps user input such as "bitcoin" to a registered symbol.
func (s *PricingService) ResolveAsset(input string) (string, error) {
	a, err := s.assets.Resolve(input)
	if err != nil {
		return "", err
	}
	return a.Symbol(), nil
}

// Quote fetches a single venue's price.
func (s *PricingService) Quote(ctx context.Context, assetInput string, venue domain.Venue) (domain.VenueQuote, error) {
	symbol, err := s.ResolveAsset(assetInput)
	if err != nil {
		return domain.VenueQuote{}, err
	}
	p, ok := s.providers[venue]
	if !ok {
		return domain.VenueQuote{}, apperror.New(apperror.CodeVenueNotSupported,
			apperror.WithContext(venue.String()))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.fetch(ctx, p, symbol)
}

// Snapshot queries every venue concurrently under one deadline. A venue that
// fails is recorded in Snapshot.Failures and does not cancel the others.
// Returns CodeNoQuotes when no venue answered.
func (s *PricingService) Snapshot(ctx context.Context, assetInput string) (*domain.Snapshot, error) {
	symbol, err := s.ResolveAsset(assetInput)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "pricing.snapshot",
		trace.WithAttributes(attribute.String("asset", symbol)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		quotes   = make([]domain.VenueQuote, 0, len(s.order))
		failures = make(map[domain.Venue]string)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, venue := range s.order {
		p := s.providers[venue]
		g.Go(func() error {
			q, err := s.fetch(gctx, p, symbol)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[p.Venue()] = err.Error()
				return nil
			}
			quotes = append(quotes, q)
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("quotes", len(quotes)),
		attribute.Int("failures", len(failures)),
	)

	if len(quotes) == 0 {
		span.SetStatus(codes.Error, "no quotes")
		return nil, apperror.New(apperror.CodeNoQuotes,
			apperror.WithContext(symbol+": every venue failed"))
	}

	return domain.NewSnapshot(symbol, quotes, failures), nil
}

func (s *PricingService) fetch(ctx context.Context, p QuoteProvider, symbol string) (domain.VenueQuote, error) {
	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("venue", p.Venue().String()))

	q, err := p.Quote(ctx, symbol)
	s.metrics.fetchLatency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	if err != nil {
		s.metrics.fetchErrors.Add(ctx, 1, attrs)
		s.logger.Warn(ctx, "quote fetch failed",
			"venue", p.Venue(),
			"asset", symbol,
			"error", err)
		return domain.VenueQuote{}, err
	}
	return q, nil
}

// Healthy reports per-venue breaker health for providers that expose it.
func (s *PricingService) Healthy() map[domain.Venue]bool {
	out := make(map[domain.Venue]bool, len(s.order))
	for _, v := range s.order {
		if h, ok := s.providers[v].(HealthReporter); ok {
			out[v] = h.Healthy()
			continue
		}
		out[v] = true
	}
	return out
}
