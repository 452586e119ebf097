package domain

import (
	"time"

	"github.com/shopspring/decimal"

	arbDomain "github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
)

// Status is the terminal state of a simulated execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// FailureReason is attached to every failed execution.
const FailureReason = "price moved during execution"

// Outcome is the result of one simulated execution.
type Outcome struct {
	ID        string
	Status    Status
	Asset     string
	BuyVenue  pricingDomain.Venue
	SellVenue pricingDomain.Venue
	Amount    decimal.Decimal

	// RealizedPnL is the signed change applied to the balance.
	RealizedPnL decimal.Decimal
	// LostAmount is the amount given up on failure, zero on success.
	LostAmount decimal.Decimal
	// Acquired is the asset credited on success, zero on failure.
	Acquired decimal.Decimal

	NewBalance decimal.Decimal
	NewHolding decimal.Decimal

	Economics          arbDomain.TradeEconomics
	SuccessProbability float64
	Sample             float64
	Reason             string
	ExecutedAt         time.Time
}

// Succeeded reports whether the success branch was applied.
func (o *Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}
