// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/app"
	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	executionDomain "github.com/fd1az/venue-arbitrage/business/execution/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
)

var _ app.Reporter = (*ConsoleReporter)(nil)

var decimal100 = decimal.NewFromInt(100)

const rule = "================================================================================"
const thinRule = "--------------------------------------------------------------------------------"

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to out, or stdout when nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "Venue Arbitrage Scanner Started")
	fmt.Fprintln(r.out, "===============================")
	return nil
}

// ReportScan prints every opportunity of a scan, or the analysis when there is none.
func (r *ConsoleReporter) ReportScan(result *domain.ScanResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	if len(result.Opportunities) == 0 {
		r.printAnalysis(result)
		fmt.Fprintln(r.out, rule)
		return
	}

	fmt.Fprintf(r.out, "ARBITRAGE OPPORTUNITIES: %s (%d)\n", result.Asset, len(result.Opportunities))
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", result.ScannedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Probe amount:   $%s\n", result.ProbeAmount.StringFixed(2))

	for i, opp := range result.Opportunities {
		e := opp.Economics
		fmt.Fprintln(r.out, thinRule)
		fmt.Fprintf(r.out, "#%d  BUY %s @ $%s  ->  SELL %s @ $%s\n",
			i+1, opp.BuyVenue.DisplayName(), opp.BuyPrice.StringFixed(2),
			opp.SellVenue.DisplayName(), opp.SellPrice.StringFixed(2))
		fmt.Fprintf(r.out, "  Gross/unit:   $%s\n", e.GrossProfit.StringFixed(2))
		fmt.Fprintf(r.out, "  Fees:         buy $%s  sell $%s  network $%s\n",
			e.Fees.Buy.StringFixed(2), e.Fees.Sell.StringFixed(2), e.Fees.Network.StringFixed(2))
		fmt.Fprintf(r.out, "  Slippage:     %s%%\n", e.Slippage.Mul(decimal100).StringFixed(2))
		fmt.Fprintf(r.out, "  Latency:      %s\n", e.Latency)
		fmt.Fprintf(r.out, "  Net:          $%s (%s%%)\n", e.NetProfit.StringFixed(2), opp.ProfitPct.StringFixed(3))
	}
	fmt.Fprintln(r.out, rule)
}

func (r *ConsoleReporter) printAnalysis(result *domain.ScanResult) {
	fmt.Fprintf(r.out, "NO OPPORTUNITY: %s (%d quotes)\n", result.Asset, len(result.Quotes))
	a := result.Analysis
	if a == nil {
		return
	}
	fmt.Fprintln(r.out, thinRule)
	fmt.Fprintf(r.out, "Widest gap:     $%s (buy %s, sell %s)\n",
		a.MaxPriceDifference.StringFixed(2), a.MaxGapBuyVenue, a.MaxGapSellVenue)
	fmt.Fprintf(r.out, "Combined fees:  %s%%\n", a.CombinedFeeFraction.Mul(decimal100).StringFixed(2))
	fmt.Fprintf(r.out, "Stability:      %s\n", a.PriceStability)
	if a.BreakEvenAmount != nil {
		fmt.Fprintf(r.out, "Break-even:     $%s\n", a.BreakEvenAmount.StringFixed(0))
	} else {
		fmt.Fprintln(r.out, "Break-even:     none in search range")
	}
	fmt.Fprintf(r.out, "Reason:         %s\n", a.Reason)
	fmt.Fprintf(r.out, "Suggestion:     %s\n", a.Suggestion)
}

// ReportExecution prints a settled execution.
func (r *ConsoleReporter) ReportExecution(o *executionDomain.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "[%s] EXECUTION %s %s: %s -> %s $%s  pnl %s  balance $%s\n",
		o.ExecutedAt.Format("15:04:05"),
		o.ID, o.Status, o.BuyVenue, o.SellVenue,
		o.Amount.StringFixed(2), o.RealizedPnL.StringFixed(2), o.NewBalance.StringFixed(2))
	if o.Reason != "" {
		fmt.Fprintf(r.out, "  reason: %s\n", o.Reason)
	}
}

// UpdateQuotes prints the quote table of each snapshot.
func (r *ConsoleReporter) UpdateQuotes(snap *pricingDomain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "[%s] %s quotes:", snap.Timestamp.Format("15:04:05"), snap.Asset)
	for _, q := range snap.Quotes {
		fmt.Fprintf(r.out, " %s=$%s", q.Venue, q.Price.StringFixed(2))
	}
	for v := range snap.Failures {
		fmt.Fprintf(r.out, " %s=n/a", v)
	}
	fmt.Fprintln(r.out)
}

// UpdateConnectionStatus outputs connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := "disconnected"
	if connected {
		status = fmt.Sprintf("connected (%s)", latency)
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), name, status)
}

// ReportError prints a failed scan or rejected execution.
func (r *ConsoleReporter) ReportError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] ERROR %v\n", time.Now().Format("15:04:05"), err)
}

// Stop prints the shutdown line.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "Venue Arbitrage Scanner Stopped")
	return nil
}
