package domain

import (
	"time"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
)

// Opportunity is a profitable ordered venue pair evaluated at the probe amount.
type Opportunity struct {
	ID         string
	Asset      string
	BuyVenue   pricingDomain.Venue
	SellVenue  pricingDomain.Venue
	BuyPrice   decimal.Decimal
	SellPrice  decimal.Decimal
	Economics  TradeEconomics
	ProfitPct  decimal.Decimal
	DetectedAt time.Time
}

// NetProfit is a shortcut for the economics net profit.
func (o *Opportunity) NetProfit() decimal.Decimal {
	return o.Economics.NetProfit
}

// Stability describes whether all venues answered the last fetch.
type Stability string

const (
	StabilityStable   Stability = "stable"
	StabilityVolatile Stability = "volatile"
)

// NoOpportunityAnalysis explains an empty scan.
type NoOpportunityAnalysis struct {
	MaxPriceDifference  decimal.Decimal
	MaxGapBuyVenue      pricingDomain.Venue
	MaxGapSellVenue     pricingDomain.Venue
	CombinedFeeFraction decimal.Decimal // two cheapest-fee quoted venues
	Reason              string
	Suggestion          string
	PriceStability      Stability
	// BreakEvenAmount is nil when no grid amount is profitable.
	BreakEvenAmount *decimal.Decimal
}

// ScanResult is the outcome of one scan over a snapshot.
type ScanResult struct {
	Asset         string
	ProbeAmount   decimal.Decimal
	Quotes        []pricingDomain.VenueQuote
	Opportunities []Opportunity // ordered by net profit descending
	Analysis      *NoOpportunityAnalysis
	ScannedAt     time.Time
}

// Best returns the top-ranked opportunity.
func (r *ScanResult) Best() (*Opportunity, bool) {
	if len(r.Opportunities) == 0 {
		return nil, false
	}
	return &r.Opportunities[0], true
}
