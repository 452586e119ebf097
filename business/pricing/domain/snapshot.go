package domain

import (
	"sort"
	"time"
)

// Snapshot is the set of quotes gathered for one asset in one fetch round.
type Snapshot struct {
	Asset     string
	Quotes    []VenueQuote     // ordered by venue
	Failures  map[Venue]string // venue -> reason
	Timestamp time.Time
}

// NewSnapshot orders the quotes by venue name.
func NewSnapshot(asset string, quotes []VenueQuote, failures map[Venue]string) *Snapshot {
	sorted := make([]VenueQuote, len(quotes))
	copy(sorted, quotes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Venue < sorted[j].Venue })

	if failures == nil {
		failures = make(map[Venue]string)
	}

	return &Snapshot{
		Asset:     asset,
		Quotes:    sorted,
		Failures:  failures,
		Timestamp: time.Now(),
	}
}

// Stable reports whether every queried venue answered.
func (s *Snapshot) Stable() bool {
	return len(s.Failures) == 0
}

// Quote returns the quote for a venue, if present.
func (s *Snapshot) Quote(v Venue) (VenueQuote, bool) {
	for _, q := range s.Quotes {
		if q.Venue == v {
			return q, true
		}
	}
	return VenueQuote{}, false
}

// Cheapest returns the lowest-priced quote.
func (s *Snapshot) Cheapest() (VenueQuote, bool) {
	if len(s.Quotes) == 0 {
		return VenueQuote{}, false
	}
	best := s.Quotes[0]
	for _, q := range s.Quotes[1:] {
		if q.Price.LessThan(best.Price) {
			best = q
		}
	}
	return best, true
}

// Dearest returns the highest-priced quote.
func (s *Snapshot) Dearest() (VenueQuote, bool) {
	if len(s.Quotes) == 0 {
		return VenueQuote{}, false
	}
	best := s.Quotes[0]
	for _, q := range s.Quotes[1:] {
		if q.Price.GreaterThan(best.Price) {
			best = q
		}
	}
	return best, true
}
