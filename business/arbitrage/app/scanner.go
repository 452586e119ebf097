package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/internal/apperror"
	"github.com/fd1az/venue-arbitrage/internal/logger"
)

const volatilitySuggestion = "Try again during periods of higher market volatility"

var hundred = decimal.NewFromInt(100)

// Scanner ranks every profitable ordered venue pair in a snapshot.
type Scanner struct {
	calc   *Calculator
	solver *BreakEvenSolver
	logger logger.LoggerInterface
}

// NewScanner creates a Scanner. solver may be nil, in which case empty scans
// carry no break-even amount.
func NewScanner(calc *Calculator, solver *BreakEvenSolver, log logger.LoggerInterface) *Scanner {
	return &Scanner{
		calc:   calc,
		solver: solver,
		logger: log,
	}
}

// Scan evaluates all ordered pairs at the probe amount. When nothing is
// profitable the result carries a NoOpportunityAnalysis instead.
func (s *Scanner) Scan(ctx context.Context, snap *pricingDomain.Snapshot, probe decimal.Decimal) (*domain.ScanResult, error) {
	if snap == nil || len(snap.Quotes) < 2 {
		n := 0
		asset := ""
		if snap != nil {
			n = len(snap.Quotes)
			asset = snap.Asset
		}
		return nil, apperror.New(apperror.CodeNoQuotes,
			apperror.WithContext(fmt.Sprintf("%s: %d quote(s), need 2", asset, n)))
	}
	if !probe.IsPositive() {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("probe amount "+probe.String()))
	}

	now := time.Now()
	result := &domain.ScanResult{
		Asset:       snap.Asset,
		ProbeAmount: probe,
		Quotes:      snap.Quotes,
		ScannedAt:   now,
	}

	for _, buy := range snap.Quotes {
		for _, sell := range snap.Quotes {
			if buy.Venue == sell.Venue || !sell.Price.GreaterThan(buy.Price) {
				continue
			}

			econ, err := s.calc.Calculate(domain.TradeRequest{
				Asset:     snap.Asset,
				BuyVenue:  buy.Venue,
				SellVenue: sell.Venue,
				BuyPrice:  buy.Price,
				SellPrice: sell.Price,
				Amount:    probe,
			})
			if err != nil {
				s.logger.Debug(ctx, "skipping venue pair",
					"buy", buy.Venue, "sell", sell.Venue, "error", err)
				continue
			}
			if !econ.IsProfitable() {
				continue
			}

			result.Opportunities = append(result.Opportunities, domain.Opportunity{
				ID:         uuid.NewString(),
				Asset:      snap.Asset,
				BuyVenue:   buy.Venue,
				SellVenue:  sell.Venue,
				BuyPrice:   buy.Price,
				SellPrice:  sell.Price,
				Economics:  econ,
				ProfitPct:  econ.ProfitPct(),
				DetectedAt: now,
			})
		}
	}

	sort.SliceStable(result.Opportunities, func(i, j int) bool {
		return result.Opportunities[i].NetProfit().GreaterThan(result.Opportunities[j].NetProfit())
	})

	if len(result.Opportunities) == 0 {
		result.Analysis = s.analyze(snap)
	}

	return result, nil
}

// analyze explains why a snapshot produced no opportunity.
func (s *Scanner) analyze(snap *pricingDomain.Snapshot) *domain.NoOpportunityAnalysis {
	a := &domain.NoOpportunityAnalysis{
		MaxPriceDifference:  decimal.Zero,
		CombinedFeeFraction: s.cheapestFeePair(snap.Quotes),
		Suggestion:          volatilitySuggestion,
		PriceStability:      domain.StabilityStable,
	}
	if !snap.Stable() {
		a.PriceStability = domain.StabilityVolatile
	}

	if gap, ok := pricingDomain.MaxAbsoluteGap(snap.Quotes); ok {
		a.MaxPriceDifference = gap.Absolute
		a.MaxGapBuyVenue = gap.BuyVenue
		a.MaxGapSellVenue = gap.SellVenue
	}

	a.Reason = fmt.Sprintf("Price gap ($%s) is less than required to overcome %s%% fees",
		a.MaxPriceDifference.StringFixed(2),
		a.CombinedFeeFraction.Mul(hundred).StringFixed(1))

	if s.solver != nil {
		if amount, err := s.solver.Solve(snap.Asset, snap.Quotes); err == nil {
			a.BreakEvenAmount = &amount
		}
	}

	return a
}

// cheapestFeePair sums the two lowest trading fees among the quoted venues.
func (s *Scanner) cheapestFeePair(quotes []pricingDomain.VenueQuote) decimal.Decimal {
	fees := make([]decimal.Decimal, 0, len(quotes))
	for _, q := range quotes {
		fees = append(fees, s.calc.Fees().VenueFee(q.Venue))
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].LessThan(fees[j]) })

	total := decimal.Zero
	for i := 0; i < len(fees) && i < 2; i++ {
		total = total.Add(fees[i])
	}
	return total
}
