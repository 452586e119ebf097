// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
)

// Defaults applied when a venue or asset has no table entry.
var (
	DefaultVenueFee   = decimal.RequireFromString("0.005")
	DefaultNetworkFee = decimal.RequireFromString("5.0")
	DefaultLatency    = 300 * time.Millisecond
)

// FeeSchedule holds trading fee fractions per venue and flat network
// (withdrawal) fees per asset.
type FeeSchedule struct {
	VenueFees         map[pricingDomain.Venue]decimal.Decimal
	NetworkFees       map[string]decimal.Decimal // upper-case symbol
	DefaultVenueFee   decimal.Decimal
	DefaultNetworkFee decimal.Decimal
}

// NewFeeSchedule copies the tables and normalizes keys.
func NewFeeSchedule(venueFees map[string]decimal.Decimal, networkFees map[string]decimal.Decimal, defaultVenueFee, defaultNetworkFee decimal.Decimal) FeeSchedule {
	fs := FeeSchedule{
		VenueFees:         make(map[pricingDomain.Venue]decimal.Decimal, len(venueFees)),
		NetworkFees:       make(map[string]decimal.Decimal, len(networkFees)),
		DefaultVenueFee:   defaultVenueFee,
		DefaultNetworkFee: defaultNetworkFee,
	}
	for k, v := range venueFees {
		fs.VenueFees[pricingDomain.Venue(strings.ToLower(k))] = v
	}
	for k, v := range networkFees {
		fs.NetworkFees[strings.ToUpper(k)] = v
	}
	return fs
}

// DefaultFeeSchedule returns the stock venue and network fee tables.
func DefaultFeeSchedule() FeeSchedule {
	return NewFeeSchedule(
		map[string]decimal.Decimal{
			"coinbase":  decimal.RequireFromString("0.005"),
			"cryptocom": decimal.RequireFromString("0.004"),
			"binance":   decimal.RequireFromString("0.001"),
			"kraken":    decimal.RequireFromString("0.0026"),
		},
		map[string]decimal.Decimal{
			"BTC":  decimal.RequireFromString("5.0"),
			"ETH":  decimal.RequireFromString("3.0"),
			"DOGE": decimal.RequireFromString("1.0"),
			"SOL":  decimal.RequireFromString("0.1"),
			"ADA":  decimal.RequireFromString("0.2"),
		},
		DefaultVenueFee,
		DefaultNetworkFee,
	)
}

// VenueFee returns the trading fee fraction for a venue.
func (f FeeSchedule) VenueFee(v pricingDomain.Venue) decimal.Decimal {
	if fee, ok := f.VenueFees[v]; ok {
		return fee
	}
	return f.DefaultVenueFee
}

// NetworkFee returns the flat transfer fee for one leg of a trade in asset.
func (f FeeSchedule) NetworkFee(asset string) decimal.Decimal {
	if fee, ok := f.NetworkFees[strings.ToUpper(asset)]; ok {
		return fee
	}
	return f.DefaultNetworkFee
}

// VenueFeeEntry is one row of the venue fee table.
type VenueFeeEntry struct {
	Venue pricingDomain.Venue
	Fee   decimal.Decimal
}

// Venues returns the venue fee table ordered from cheapest to dearest.
func (f FeeSchedule) Venues() []VenueFeeEntry {
	out := make([]VenueFeeEntry, 0, len(f.VenueFees))
	for v, fee := range f.VenueFees {
		out = append(out, VenueFeeEntry{Venue: v, Fee: fee})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Fee.Equal(out[j].Fee) {
			return out[i].Fee.LessThan(out[j].Fee)
		}
		return out[i].Venue < out[j].Venue
	})
	return out
}

// NetworkFeeEntry is one row of the network fee table.
type NetworkFeeEntry struct {
	Asset string
	Fee   decimal.Decimal
}

// Assets returns the network fee table ordered by symbol.
func (f FeeSchedule) Assets() []NetworkFeeEntry {
	out := make([]NetworkFeeEntry, 0, len(f.NetworkFees))
	for a, fee := range f.NetworkFees {
		out = append(out, NetworkFeeEntry{Asset: a, Fee: fee})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

// LatencyTable holds the expected order round-trip latency per venue.
type LatencyTable struct {
	Venues  map[pricingDomain.Venue]time.Duration
	Default time.Duration
}

// NewLatencyTable copies the table and normalizes keys.
func NewLatencyTable(latencies map[string]time.Duration, def time.Duration) LatencyTable {
	lt := LatencyTable{
		Venues:  make(map[pricingDomain.Venue]time.Duration, len(latencies)),
		Default: def,
	}
	for k, v := range latencies {
		lt.Venues[pricingDomain.Venue(strings.ToLower(k))] = v
	}
	return lt
}

// DefaultLatencyTable returns the stock venue latencies.
func DefaultLatencyTable() LatencyTable {
	return NewLatencyTable(map[string]time.Duration{
		"coinbase":  300 * time.Millisecond,
		"cryptocom": 400 * time.Millisecond,
		"binance":   200 * time.Millisecond,
		"kraken":    350 * time.Millisecond,
	}, DefaultLatency)
}

// Latency returns the venue latency or the default.
func (l LatencyTable) Latency(v pricingDomain.Venue) time.Duration {
	if d, ok := l.Venues[v]; ok {
		return d
	}
	return l.Default
}
