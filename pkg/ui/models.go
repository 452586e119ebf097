// Package ui provides the Bubble Tea TUI for the venue arbitrage scanner.
package ui

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	executionDomain "github.com/fd1az/venue-arbitrage/business/execution/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/pkg/ui/components"
)

var hundred = decimal.NewFromInt(100)

// Venue tables are display-only; every figure shown comes from the domain.

func priceRows(snap *pricingDomain.Snapshot, fees domain.FeeSchedule, latency domain.LatencyTable) ([]components.PriceRow, map[string]string) {
	cheapest, _ := snap.Cheapest()
	dearest, _ := snap.Dearest()
	multi := len(snap.Quotes) > 1

	rows := make([]components.PriceRow, 0, len(snap.Quotes))
	for _, q := range snap.Quotes {
		rows = append(rows, components.PriceRow{
			Venue:    q.Venue.DisplayName(),
			Price:    q.Price,
			FeePct:   fees.VenueFee(q.Venue).Mul(hundred),
			Latency:  latency.Latency(q.Venue),
			Source:   string(q.Source),
			Cheapest: multi && q.Venue == cheapest.Venue,
			Dearest:  multi && q.Venue == dearest.Venue,
		})
	}

	failures := make(map[string]string, len(snap.Failures))
	for v, reason := range snap.Failures {
		failures[v.DisplayName()] = reason
	}
	return rows, failures
}

func route(buy, sell pricingDomain.Venue) string {
	return fmt.Sprintf("%s → %s", buy, sell)
}

func analysisFor(result *domain.ScanResult) components.Analysis {
	if best, ok := result.Best(); ok {
		return components.Analysis{
			IsOpportunity: true,
			BestPair:      route(best.BuyVenue, best.SellVenue),
			NetProfit:     best.NetProfit(),
			ProfitPct:     best.ProfitPct,
		}
	}

	a := result.Analysis
	if a == nil {
		return components.Analysis{Reason: "No quotes to compare"}
	}
	out := components.Analysis{
		MaxDifference:  a.MaxPriceDifference,
		MaxGapPair:     route(a.MaxGapBuyVenue, a.MaxGapSellVenue),
		CombinedFeePct: a.CombinedFeeFraction.Mul(hundred),
		Reason:         a.Reason,
		Suggestion:     a.Suggestion,
		Stability:      string(a.PriceStability),
	}
	if a.BreakEvenAmount != nil {
		out.BreakEven = "$" + a.BreakEvenAmount.StringFixed(0)
	}
	return out
}

func opportunityRow(opp *domain.Opportunity) components.OpportunityRow {
	return components.OpportunityRow{
		Time:       opp.DetectedAt.Format("15:04:05"),
		Route:      route(opp.BuyVenue, opp.SellVenue),
		Amount:     opp.Economics.Request.Amount,
		Profit:     opp.NetProfit(),
		Status:     "DETECTED",
		Profitable: true,
	}
}

func executionRow(out *executionDomain.Outcome) components.OpportunityRow {
	status := "FILLED"
	if !out.Succeeded() {
		status = "FAILED"
	}
	return components.OpportunityRow{
		Time:       out.ExecutedAt.Format("15:04:05"),
		Route:      route(out.BuyVenue, out.SellVenue),
		Amount:     out.Amount,
		Profit:     out.RealizedPnL,
		Status:     status,
		Profitable: out.Succeeded() && out.RealizedPnL.IsPositive(),
	}
}
