// Package ratelimit enforces per-venue request budgets on top of
// golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

// Limiter paces calls to one upstream. Waits that actually block are
// counted so a throttled venue shows up in metrics.
type Limiter struct {
	name      string
	limiter   *rate.Limiter
	throttled metric.Int64Counter
	waited    metric.Float64Histogram
	attrs     metric.MeasurementOption
}

// New allows requestsPerMinute calls with a burst of a tenth of that,
// never less than one.
func New(name string, requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	burst := max(requestsPerMinute/10, 1)

	meter := otel.Meter("ratelimit")
	throttled, _ := meter.Int64Counter("ratelimit_throttled_total",
		metric.WithDescription("Calls that had to wait for a request token"))
	waited, _ := meter.Float64Histogram("ratelimit_wait_seconds",
		metric.WithDescription("Time spent waiting for a request token"))

	return &Limiter{
		name:      name,
		limiter:   rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
		throttled: throttled,
		waited:    waited,
		attrs:     metric.WithAttributes(attribute.String("upstream", name)),
	}
}

// Wait blocks until a token is available or ctx is done. A done ctx never
// gets a token, and Wait fails fast when the deadline would pass before
// the token arrives.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.limiter.Allow() {
		return nil
	}

	start := time.Now()
	err := l.limiter.Wait(ctx)
	if l.throttled != nil {
		l.throttled.Add(ctx, 1, l.attrs)
	}
	if l.waited != nil {
		l.waited.Record(ctx, time.Since(start).Seconds(), l.attrs)
	}
	return err
}

// Allow takes a token if one is available right now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Name returns the upstream this limiter paces.
func (l *Limiter) Name() string {
	return l.name
}
