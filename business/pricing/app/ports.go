// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/fd1az/venue-arbitrage/business/pricing/domain"
)

// QuoteProvider fetches spot prices from one venue.
type QuoteProvider interface {
	// Venue identifies the venue this provider quotes.
	Venue() domain.Venue

	// Quote returns the current USD price of asset (upper-case symbol).
	// Failures carry apperror.CodeQuoteUnavailable or a more specific code.
	Quote(ctx context.Context, asset string) (domain.VenueQuote, error)
}

// HealthReporter is implemented by providers that can report whether calls
// are currently allowed through.
type HealthReporter interface {
	Healthy() bool
}
