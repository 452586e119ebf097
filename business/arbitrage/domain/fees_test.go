package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
)

func TestFeeSchedule_Lookups(t *testing.T) {
	fs := DefaultFeeSchedule()

	tests := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"coinbase_fee", fs.VenueFee(pricingDomain.VenueCoinbase), "0.005"},
		{"binance_fee", fs.VenueFee(pricingDomain.VenueBinance), "0.001"},
		{"kraken_fee", fs.VenueFee(pricingDomain.VenueKraken), "0.0026"},
		{"unknown_venue_default", fs.VenueFee("bitstamp"), "0.005"},
		{"btc_network", fs.NetworkFee("BTC"), "5"},
		{"eth_network_lowercase", fs.NetworkFee("eth"), "3"},
		{"sol_network", fs.NetworkFee("SOL"), "0.1"},
		{"unknown_asset_default", fs.NetworkFee("XRP"), "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if want := decimal.RequireFromString(tt.want); !tt.got.Equal(want) {
				t.Errorf("got %s, want %s", tt.got, want)
			}
		})
	}
}

func TestFeeSchedule_VenuesOrderedByFee(t *testing.T) {
	rows := DefaultFeeSchedule().Venues()
	want := []pricingDomain.Venue{
		pricingDomain.VenueBinance,
		pricingDomain.VenueKraken,
		pricingDomain.VenueCryptoCom,
		pricingDomain.VenueCoinbase,
	}
	if len(rows) != len(want) {
		t.Fatalf("len = %d, want %d", len(rows), len(want))
	}
	for i, r := range rows {
		if r.Venue != want[i] {
			t.Errorf("rows[%d] = %s, want %s", i, r.Venue, want[i])
		}
	}
}

func TestLatencyTable(t *testing.T) {
	lt := DefaultLatencyTable()

	if got := lt.Latency(pricingDomain.VenueCryptoCom); got != 400*time.Millisecond {
		t.Errorf("cryptocom = %v, want 400ms", got)
	}
	if got := lt.Latency("unknown"); got != 300*time.Millisecond {
		t.Errorf("unknown = %v, want 300ms default", got)
	}

	custom := NewLatencyTable(map[string]time.Duration{"Kraken": time.Second}, 0)
	if got := custom.Latency(pricingDomain.VenueKraken); got != time.Second {
		t.Errorf("custom kraken = %v, want 1s", got)
	}
}

func TestSlippageFor(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"10", "0.001"},   // floor
		{"100", "0.001"},  // exactly at floor
		{"500", "0.005"},  // linear region
		{"1000", "0.01"},  // exactly at cap
		{"50000", "0.01"}, // capped
		{"250.5", "0.002505"},
	}

	for _, tt := range tests {
		got := SlippageFor(decimal.RequireFromString(tt.amount))
		if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
			t.Errorf("SlippageFor(%s) = %s, want %s", tt.amount, got, want)
		}
	}
}
