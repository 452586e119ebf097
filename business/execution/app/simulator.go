// Package app contains application services and port definitions for the execution context.
package app

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	arbDomain "github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/venue-arbitrage/business/execution/domain"
)

// Success probability model: 0.95 minus 0.1 per second of round-trip
// latency, clamped to [MinSuccessProbability, MaxSuccessProbability].
const (
	MaxSuccessProbability = 0.95
	MinSuccessProbability = 0.70
	latencyPenaltyPerSec  = 0.1
)

// FailurePenalty is the fraction of the amount lost on top of the amount
// itself when an execution fails.
var FailurePenalty = decimal.RequireFromString("0.02")

// RandomSource yields uniform samples in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// SuccessProbability returns the chance that a trade with the given
// round-trip latency fills before prices move.
func SuccessProbability(latency time.Duration) float64 {
	p := MaxSuccessProbability - latency.Seconds()*latencyPenaltyPerSec
	return math.Max(MinSuccessProbability, math.Min(MaxSuccessProbability, p))
}

// Simulator applies a stochastic fill to a wallet. It draws exactly one
// sample per Apply.
type Simulator struct {
	mu  sync.Mutex
	rnd RandomSource
	now func() time.Time
}

// NewSimulator creates a Simulator drawing from rnd.
func NewSimulator(rnd RandomSource) *Simulator {
	return &Simulator{rnd: rnd, now: time.Now}
}

func (s *Simulator) draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// Apply settles econ against w. On success the balance moves by the net
// profit and the acquired asset is credited. On failure the amount plus
// the penalty is debited. Either debit is capped at the current balance.
func (s *Simulator) Apply(w *domain.Wallet, econ arbDomain.TradeEconomics) domain.Outcome {
	req := econ.Request
	p := SuccessProbability(econ.Latency)
	sample := s.draw()

	out := domain.Outcome{
		ID:                 uuid.NewString(),
		Asset:              req.Asset,
		BuyVenue:           req.BuyVenue,
		SellVenue:          req.SellVenue,
		Amount:             req.Amount,
		Economics:          econ,
		SuccessProbability: p,
		Sample:             sample,
		ExecutedAt:         s.now(),
	}

	if sample < p {
		// Debit amount, credit amount + net: the balance moves by net.
		delta := capLoss(econ.NetProfit, w.Balance)
		w.Balance = w.Balance.Add(delta)
		w.Credit(req.Asset, econ.AcquiredAmount)

		out.Status = domain.StatusSuccess
		out.RealizedPnL = delta
		out.Acquired = econ.AcquiredAmount
	} else {
		lost := req.Amount.Add(req.Amount.Mul(FailurePenalty))
		delta := capLoss(lost.Neg(), w.Balance)
		w.Balance = w.Balance.Add(delta)

		out.Status = domain.StatusFailed
		out.RealizedPnL = delta
		out.LostAmount = delta.Neg()
		out.Acquired = decimal.Zero
		out.Reason = domain.FailureReason
	}

	out.NewBalance = w.Balance
	out.NewHolding = w.Holding(req.Asset)
	return out
}

// capLoss limits a negative delta so the balance cannot go below zero.
func capLoss(delta, balance decimal.Decimal) decimal.Decimal {
	if delta.IsNegative() && delta.Neg().GreaterThan(balance) {
		return balance.Neg()
	}
	return delta
}
