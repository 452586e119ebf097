package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/internal/apperror"
)

var tolerance = decimal.RequireFromString("0.0001")

func approxEqual(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	w := decimal.RequireFromString(want)
	if got.Sub(w).Abs().GreaterThan(tolerance) {
		t.Errorf("%s = %s, want %s", field, got.String(), want)
	}
}

func defaultCalculator() *Calculator {
	return NewCalculator(domain.DefaultFeeSchedule(), domain.DefaultLatencyTable())
}

func request(buyVenue, sellVenue pricingDomain.Venue, buy, sell, amount string) domain.TradeRequest {
	return domain.TradeRequest{
		Asset:     "BTC",
		BuyVenue:  buyVenue,
		SellVenue: sellVenue,
		BuyPrice:  decimal.RequireFromString(buy),
		SellPrice: decimal.RequireFromString(sell),
		Amount:    decimal.RequireFromString(amount),
	}
}

func TestCalculator_WorkedExample(t *testing.T) {
	// coinbase charges 0.005, cryptocom 0.004, BTC network fee is 5.
	calc := defaultCalculator()
	econ, err := calc.Calculate(request(pricingDomain.VenueCoinbase, pricingDomain.VenueCryptoCom, "100", "101", "1000"))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	approxEqual(t, "buy fee", econ.Fees.Buy, "5")
	approxEqual(t, "sell fee", econ.Fees.Sell, "4")
	approxEqual(t, "network fee", econ.Fees.Network, "10")
	approxEqual(t, "total fees", econ.Fees.Total, "19")
	approxEqual(t, "slippage", econ.Slippage, "0.01")
	approxEqual(t, "effective buy", econ.EffectiveBuyPrice, "101")
	approxEqual(t, "effective sell", econ.EffectiveSellPrice, "99.99")
	approxEqual(t, "acquired", econ.AcquiredAmount, "9.8020")
	approxEqual(t, "proceeds", econ.Proceeds, "971.1")
	approxEqual(t, "net profit", econ.NetProfit, "-28.9")
	approxEqual(t, "gross profit", econ.GrossProfit, "1")

	if econ.IsProfitable() {
		t.Error("a $1 spread should not be profitable at this size")
	}
	if econ.Latency != 700*time.Millisecond {
		t.Errorf("latency = %v, want 700ms", econ.Latency)
	}
}

func TestCalculator_GrossProfitIsPerUnit(t *testing.T) {
	calc := defaultCalculator()

	small, err := calc.Calculate(request(pricingDomain.VenueBinance, pricingDomain.VenueKraken, "100", "110", "100"))
	if err != nil {
		t.Fatal(err)
	}
	large, err := calc.Calculate(request(pricingDomain.VenueBinance, pricingDomain.VenueKraken, "100", "110", "5000"))
	if err != nil {
		t.Fatal(err)
	}

	if !small.GrossProfit.Equal(large.GrossProfit) {
		t.Errorf("gross profit changed with amount: %s vs %s", small.GrossProfit, large.GrossProfit)
	}
	if small.NetProfit.Equal(large.NetProfit) {
		t.Error("net profit should scale with amount")
	}
}

func TestCalculator_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  domain.TradeRequest
	}{
		{"zero_buy_price", request(pricingDomain.VenueBinance, pricingDomain.VenueKraken, "0", "100", "1000")},
		{"negative_sell_price", request(pricingDomain.VenueBinance, pricingDomain.VenueKraken, "100", "-1", "1000")},
		{"zero_amount", request(pricingDomain.VenueBinance, pricingDomain.VenueKraken, "100", "101", "0")},
		{"negative_amount", request(pricingDomain.VenueBinance, pricingDomain.VenueKraken, "100", "101", "-50")},
		{"same_venue", request(pricingDomain.VenueKraken, pricingDomain.VenueKraken, "100", "101", "1000")},
	}

	calc := defaultCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Calculate(tt.req)
			if !apperror.HasCode(err, apperror.CodeInvalidInput) {
				t.Errorf("err = %v, want %s", err, apperror.CodeInvalidInput)
			}
		})
	}
}

func TestCalculator_NetProfitNonIncreasingInFees(t *testing.T) {
	fees := []string{"0", "0.001", "0.0026", "0.005", "0.01", "0.05"}
	req := request(pricingDomain.VenueBinance, pricingDomain.VenueKraken, "100", "103", "2500")

	var prev *decimal.Decimal
	for _, f := range fees {
		fee := decimal.RequireFromString(f)
		schedule := domain.NewFeeSchedule(
			map[string]decimal.Decimal{"binance": fee, "kraken": fee},
			map[string]decimal.Decimal{"BTC": decimal.NewFromInt(5)},
			domain.DefaultVenueFee, domain.DefaultNetworkFee,
		)
		econ, err := NewCalculator(schedule, domain.DefaultLatencyTable()).Calculate(req)
		if err != nil {
			t.Fatal(err)
		}
		if prev != nil && econ.NetProfit.GreaterThan(*prev) {
			t.Errorf("fee %s: net %s rose above %s", f, econ.NetProfit, prev)
		}
		net := econ.NetProfit
		prev = &net
	}

	prev = nil
	for _, n := range []string{"0", "1", "5", "25"} {
		schedule := domain.NewFeeSchedule(
			map[string]decimal.Decimal{"binance": decimal.RequireFromString("0.001")},
			map[string]decimal.Decimal{"BTC": decimal.RequireFromString(n)},
			domain.DefaultVenueFee, domain.DefaultNetworkFee,
		)
		econ, err := NewCalculator(schedule, domain.DefaultLatencyTable()).Calculate(req)
		if err != nil {
			t.Fatal(err)
		}
		if prev != nil && econ.NetProfit.GreaterThan(*prev) {
			t.Errorf("network fee %s: net %s rose above %s", n, econ.NetProfit, prev)
		}
		net := econ.NetProfit
		prev = &net
	}
}

func TestCalculator_DefaultsForUnknownVenue(t *testing.T) {
	calc := defaultCalculator()
	econ, err := calc.Calculate(request("bitstamp", pricingDomain.VenueKraken, "100", "101", "1000"))
	if err != nil {
		t.Fatal(err)
	}

	approxEqual(t, "buy fee", econ.Fees.Buy, "5")
	if econ.Latency != domain.DefaultLatency+350*time.Millisecond {
		t.Errorf("latency = %v, want default + kraken", econ.Latency)
	}
}

func BenchmarkCalculator_Calculate(b *testing.B) {
	calc := defaultCalculator()
	req := request(pricingDomain.VenueCoinbase, pricingDomain.VenueCryptoCom, "100", "101", "1000")

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := calc.Calculate(req); err != nil {
			b.Fatal(err)
		}
	}
}
