package domain

import "github.com/shopspring/decimal"

// Spread is the price difference between buying on one venue and selling on another.
type Spread struct {
	BuyVenue    Venue
	SellVenue   Venue
	BuyPrice    decimal.Decimal
	SellPrice   decimal.Decimal
	Absolute    decimal.Decimal // sell - buy
	BasisPoints decimal.Decimal // (sell - buy) / buy * 10000
}

// CalculateSpread computes the spread of buying at buy and selling at sell.
func CalculateSpread(buy, sell VenueQuote) Spread {
	absolute := sell.Price.Sub(buy.Price)
	bps := decimal.Zero
	if !buy.Price.IsZero() {
		bps = absolute.Div(buy.Price).Mul(decimal.NewFromInt(10000))
	}

	return Spread{
		BuyVenue:    buy.Venue,
		SellVenue:   sell.Venue,
		BuyPrice:    buy.Price,
		SellPrice:   sell.Price,
		Absolute:    absolute,
		BasisPoints: bps,
	}
}

// IsPositive reports whether selling is priced above buying.
func (s Spread) IsPositive() bool {
	return s.Absolute.IsPositive()
}

// MaxAbsoluteGap returns the largest |price_i - price_j| over unordered pairs,
// with the cheaper venue first.
func MaxAbsoluteGap(quotes []VenueQuote) (Spread, bool) {
	if len(quotes) < 2 {
		return Spread{}, false
	}

	var best Spread
	found := false
	for i := 0; i < len(quotes); i++ {
		for j := i + 1; j < len(quotes); j++ {
			lo, hi := quotes[i], quotes[j]
			if hi.Price.LessThan(lo.Price) {
				lo, hi = hi, lo
			}
			s := CalculateSpread(lo, hi)
			if !found || s.Absolute.GreaterThan(best.Absolute) {
				best = s
				found = true
			}
		}
	}
	return best, found
}
