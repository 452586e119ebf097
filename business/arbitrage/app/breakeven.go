package app

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/internal/apperror"
)

// Grid is the inclusive set of trade sizes searched for a break-even point.
type Grid struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Step decimal.Decimal
}

// DefaultGrid covers $10 to $10,000 in $10 steps.
func DefaultGrid() Grid {
	return Grid{
		Min:  decimal.NewFromInt(10),
		Max:  decimal.NewFromInt(10000),
		Step: decimal.NewFromInt(10),
	}
}

func (g Grid) valid() bool {
	return g.Min.IsPositive() && g.Step.IsPositive() && g.Max.GreaterThanOrEqual(g.Min)
}

// BreakEvenSolver finds the smallest grid amount with positive net profit.
// The search is a brute force walk; every step is in-memory arithmetic.
type BreakEvenSolver struct {
	calc *Calculator
	grid Grid
}

// NewBreakEvenSolver creates a solver. An invalid grid falls back to DefaultGrid.
func NewBreakEvenSolver(calc *Calculator, grid Grid) *BreakEvenSolver {
	if !grid.valid() {
		grid = DefaultGrid()
	}
	return &BreakEvenSolver{calc: calc, grid: grid}
}

// Grid returns the search grid.
func (s *BreakEvenSolver) Grid() Grid {
	return s.grid
}

// SolvePair returns the break-even amount for buying on buy and selling on sell.
// A pair whose buy price is not below its sell price has no solution.
func (s *BreakEvenSolver) SolvePair(asset string, buy, sell pricingDomain.VenueQuote) (decimal.Decimal, error) {
	if buy.Venue == sell.Venue {
		return decimal.Zero, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("buy and sell venue are both "+string(buy.Venue)))
	}
	if buy.Price.GreaterThanOrEqual(sell.Price) {
		return decimal.Zero, noSolution(asset, "buy price "+buy.Price.String()+" >= sell price "+sell.Price.String())
	}

	for amount := s.grid.Min; amount.LessThanOrEqual(s.grid.Max); amount = amount.Add(s.grid.Step) {
		econ, err := s.calc.Calculate(domain.TradeRequest{
			Asset:     asset,
			BuyVenue:  buy.Venue,
			SellVenue: sell.Venue,
			BuyPrice:  buy.Price,
			SellPrice: sell.Price,
			Amount:    amount,
		})
		if err != nil {
			return decimal.Zero, err
		}
		if econ.IsProfitable() {
			return amount, nil
		}
	}

	return decimal.Zero, noSolution(asset, string(buy.Venue)+"->"+string(sell.Venue)+" grid exhausted")
}

// Solve returns the smallest grid amount at which any ordered pair of the
// given quotes is profitable.
func (s *BreakEvenSolver) Solve(asset string, quotes []pricingDomain.VenueQuote) (decimal.Decimal, error) {
	if len(quotes) < 2 {
		return decimal.Zero, apperror.New(apperror.CodeNoQuotes,
			apperror.WithContext(asset+" needs at least two venue quotes"))
	}

	for amount := s.grid.Min; amount.LessThanOrEqual(s.grid.Max); amount = amount.Add(s.grid.Step) {
		for _, buy := range quotes {
			for _, sell := range quotes {
				if buy.Venue == sell.Venue || buy.Price.GreaterThanOrEqual(sell.Price) {
					continue
				}
				econ, err := s.calc.Calculate(domain.TradeRequest{
					Asset:     asset,
					BuyVenue:  buy.Venue,
					SellVenue: sell.Venue,
					BuyPrice:  buy.Price,
					SellPrice: sell.Price,
					Amount:    amount,
				})
				if err != nil {
					continue
				}
				if econ.IsProfitable() {
					return amount, nil
				}
			}
		}
	}

	return decimal.Zero, noSolution(asset, "grid exhausted")
}

func noSolution(asset, detail string) error {
	return apperror.New(apperror.CodeNoSolution, apperror.WithContext(asset+": "+detail))
}
