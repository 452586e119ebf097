package domain

import (
	"time"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
)

// Slippage model: amount / SlippageScale, clamped to [MinSlippage, MaxSlippage].
var (
	SlippageScale = decimal.NewFromInt(100000)
	MinSlippage   = decimal.RequireFromString("0.001")
	MaxSlippage   = decimal.RequireFromString("0.01")
)

// SlippageFor returns the price impact fraction for a trade of amount dollars.
func SlippageFor(amount decimal.Decimal) decimal.Decimal {
	s := amount.Div(SlippageScale)
	if s.LessThan(MinSlippage) {
		return MinSlippage
	}
	if s.GreaterThan(MaxSlippage) {
		return MaxSlippage
	}
	return s
}

// TradeRequest is a buy-on-one, sell-on-another proposal.
type TradeRequest struct {
	Asset     string
	BuyVenue  pricingDomain.Venue
	SellVenue pricingDomain.Venue
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	Amount    decimal.Decimal // dollars committed
}

// FeeBreakdown itemizes the costs of a trade.
type FeeBreakdown struct {
	Buy     decimal.Decimal
	Sell    decimal.Decimal
	Network decimal.Decimal // both legs
	Total   decimal.Decimal
}

// TradeEconomics is the fee, slippage and latency adjusted outcome of a trade.
type TradeEconomics struct {
	Request TradeRequest

	// GrossProfit is the per-unit price delta (sell - buy), not scaled by amount.
	GrossProfit decimal.Decimal
	// NetProfit is the dollar result after every cost.
	NetProfit decimal.Decimal

	Fees               FeeBreakdown
	Slippage           decimal.Decimal // fraction
	Latency            time.Duration
	EffectiveBuyPrice  decimal.Decimal
	EffectiveSellPrice decimal.Decimal
	AcquiredAmount     decimal.Decimal // units of asset bought
	Proceeds           decimal.Decimal
}

// IsProfitable reports whether net profit is strictly positive.
func (e TradeEconomics) IsProfitable() bool {
	return e.NetProfit.IsPositive()
}

// ProfitPct returns net profit as a percentage of the committed amount.
func (e TradeEconomics) ProfitPct() decimal.Decimal {
	if e.Request.Amount.IsZero() {
		return decimal.Zero
	}
	return e.NetProfit.Div(e.Request.Amount).Mul(decimal.NewFromInt(100))
}
