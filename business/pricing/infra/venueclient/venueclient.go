// Package venueclient holds the plumbing shared by the REST venue adapters:
// an instrumented HTTP client and a guard that combines the venue's request
// budget with a circuit breaker.
package venueclient

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"

	"github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/internal/apperror"
	"github.com/fd1az/venue-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/venue-arbitrage/internal/httpclient"
	"github.com/fd1az/venue-arbitrage/internal/logger"
	"github.com/fd1az/venue-arbitrage/internal/ratelimit"
)

const defaultTimeout = 10 * time.Second

// Config is the common configuration of a REST venue adapter.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// NewHTTPClient creates an instrumented JSON client for a venue.
func NewHTTPClient(venue domain.Venue, baseURL string, timeout time.Duration) (httpclient.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client, err := httpclient.New(
		httpclient.WithVenue(venue.String()),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithTimeout(timeout),
		httpclient.WithTracer(otel.Tracer(venue.String()), true),
		httpclient.WithHeader("Accept", "application/json"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s HTTP client: %w", venue, err)
	}
	return client, nil
}

// Guard applies a venue's request budget and circuit breaker around quote calls.
type Guard struct {
	venue   domain.Venue
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.CircuitBreaker[domain.VenueQuote]
}

// NewGuard creates a Guard allowing requestsPerMinute calls.
func NewGuard(venue domain.Venue, requestsPerMinute int, log logger.LoggerInterface) *Guard {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	cbCfg := circuitbreaker.DefaultConfig(venue.String())
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "venue circuit breaker state changed",
			"venue", name,
			"from", from.String(),
			"to", to.String())
	}

	return &Guard{
		venue:   venue,
		limiter: ratelimit.New(venue.String(), requestsPerMinute),
		breaker: circuitbreaker.New[domain.VenueQuote](cbCfg),
	}
}

// Do waits for a request token and runs fn through the breaker.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) (domain.VenueQuote, error)) (domain.VenueQuote, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return domain.VenueQuote{}, apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithContext(g.venue.String()),
			apperror.WithCause(err))
	}
	return g.breaker.Execute(func() (domain.VenueQuote, error) {
		return fn(ctx)
	})
}

// Healthy reports whether the breaker lets calls through.
func (g *Guard) Healthy() bool {
	return g.breaker.Healthy()
}

// Unavailable wraps a venue failure as CodeQuoteUnavailable.
func Unavailable(venue domain.Venue, asset string, cause error) error {
	return apperror.New(apperror.CodeQuoteUnavailable,
		apperror.WithContext(venue.String()+" "+asset),
		apperror.WithCause(cause))
}

// APIError is a non-2xx answer from a venue.
type APIError struct {
	Venue      domain.Venue
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (HTTP %d): %s", e.Venue, e.StatusCode, e.Message)
}
