package infra

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	executionDomain "github.com/fd1az/venue-arbitrage/business/execution/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/pkg/ui"
)

func TestConsoleReporter_ReportScan(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.ReportScan(&domain.ScanResult{
		Asset:       "BTC",
		ProbeAmount: decimal.NewFromInt(1000),
		Opportunities: []domain.Opportunity{{
			BuyVenue:  pricingDomain.VenueBinance,
			SellVenue: pricingDomain.VenueCoinbase,
			BuyPrice:  decimal.NewFromInt(50000),
			SellPrice: decimal.NewFromInt(51000),
			Economics: domain.TradeEconomics{
				GrossProfit: decimal.NewFromInt(1000),
				NetProfit:   decimal.RequireFromString("4.2"),
				Slippage:    decimal.RequireFromString("0.01"),
				Latency:     500 * time.Millisecond,
			},
			ProfitPct: decimal.RequireFromString("0.42"),
		}},
		ScannedAt: time.Now(),
	})

	out := buf.String()
	for _, want := range []string{"ARBITRAGE OPPORTUNITIES: BTC (1)", "BUY Binance @ $50000.00", "SELL Coinbase @ $51000.00", "Net:          $4.20 (0.420%)", "Slippage:     1.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleReporter_ReportScanAnalysis(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.ReportScan(&domain.ScanResult{
		Asset: "ETH",
		Analysis: &domain.NoOpportunityAnalysis{
			MaxPriceDifference:  decimal.RequireFromString("2.5"),
			MaxGapBuyVenue:      pricingDomain.VenueKraken,
			MaxGapSellVenue:     pricingDomain.VenueCoinbase,
			CombinedFeeFraction: decimal.RequireFromString("0.0036"),
			Reason:              "Price gap ($2.50) is less than required to overcome 0.4% fees",
			Suggestion:          "wait",
			PriceStability:      domain.StabilityStable,
		},
	})

	out := buf.String()
	for _, want := range []string{"NO OPPORTUNITY: ETH", "$2.50 (buy kraken, sell coinbase)", "0.36%", "none in search range", "Price gap ($2.50)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleReporter_ReportExecution(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.ReportExecution(&executionDomain.Outcome{
		ID:          "tx-1",
		Status:      executionDomain.StatusFailed,
		BuyVenue:    pricingDomain.VenueBinance,
		SellVenue:   pricingDomain.VenueKraken,
		Amount:      decimal.NewFromInt(100),
		RealizedPnL: decimal.NewFromInt(-102),
		NewBalance:  decimal.NewFromInt(9898),
		Reason:      executionDomain.FailureReason,
		ExecutedAt:  time.Now(),
	})

	out := buf.String()
	if !strings.Contains(out, "EXECUTION tx-1 failed") || !strings.Contains(out, executionDomain.FailureReason) {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestTUIReporter_Forwards(t *testing.T) {
	var got []tea.Msg
	r := &TUIReporter{send: func(m tea.Msg) { got = append(got, m) }}

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.ReportScan(&domain.ScanResult{Asset: "BTC"})
	r.UpdateConnectionStatus("Binance", true, time.Millisecond)
	r.ReportExecution(&executionDomain.Outcome{})
	r.UpdateQuotes(pricingDomain.NewSnapshot("BTC", nil, nil))
	r.ReportError(errors.New("venue down"))

	if len(got) != 6 {
		t.Fatalf("sent %d messages, want 6", len(got))
	}
	if s, ok := got[0].(ui.StartupMsg); !ok || s.Step != "detector" {
		t.Errorf("first message = %#v", got[0])
	}
	if _, ok := got[1].(ui.ScanMsg); !ok {
		t.Errorf("second message = %T", got[1])
	}
	if c, ok := got[2].(ui.ConnectionStatusMsg); !ok || !c.Connected {
		t.Errorf("third message = %#v", got[2])
	}
	if _, ok := got[3].(ui.ExecutionMsg); !ok {
		t.Errorf("fourth message = %T", got[3])
	}
	if _, ok := got[4].(ui.QuotesMsg); !ok {
		t.Errorf("fifth message = %T", got[4])
	}
	if e, ok := got[5].(ui.ErrorMsg); !ok || e.Error.Error() != "venue down" {
		t.Errorf("sixth message = %#v", got[5])
	}
}
