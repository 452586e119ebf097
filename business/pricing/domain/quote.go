package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/internal/apperror"
)

// Source records how a quote was obtained.
type Source string

const (
	SourceREST      Source = "rest"
	SourceWebSocket Source = "websocket"
)

// VenueQuote is a spot price for one asset on one venue.
type VenueQuote struct {
	Venue     Venue
	Asset     string // upper-case symbol
	Price     decimal.Decimal
	Source    Source
	Timestamp time.Time
}

// NewVenueQuote validates and builds a quote stamped with the current time.
func NewVenueQuote(venue Venue, asset string, price decimal.Decimal, source Source) (VenueQuote, error) {
	if !price.IsPositive() {
		return VenueQuote{}, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext(string(venue)+" "+asset+" price "+price.String()))
	}
	return VenueQuote{
		Venue:     venue,
		Asset:     asset,
		Price:     price,
		Source:    source,
		Timestamp: time.Now(),
	}, nil
}

// Age returns how old the quote is relative to now.
func (q VenueQuote) Age(now time.Time) time.Duration {
	return now.Sub(q.Timestamp)
}
