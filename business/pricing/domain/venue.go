// Package domain contains the core domain types for the pricing context.
package domain

import (
	"strings"

	"github.com/fd1az/venue-arbitrage/internal/apperror"
)

// Venue identifies a trading venue.
type Venue string

const (
	VenueCoinbase  Venue = "coinbase"
	VenueCryptoCom Venue = "cryptocom"
	VenueBinance   Venue = "binance"
	VenueKraken    Venue = "kraken"
)

var displayNames = map[Venue]string{
	VenueCoinbase:  "Coinbase",
	VenueCryptoCom: "Crypto.com",
	VenueBinance:   "Binance",
	VenueKraken:    "Kraken",
}

// KnownVenues lists the venues with a quote adapter.
func KnownVenues() []Venue {
	return []Venue{VenueCoinbase, VenueCryptoCom, VenueBinance, VenueKraken}
}

// ParseVenue normalizes user input such as "Crypto.com" or "COINBASE".
func ParseVenue(s string) (Venue, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(".", "", "-", "", "_", "", " ", "").Replace(key)
	v := Venue(key)
	if _, ok := displayNames[v]; !ok {
		return "", apperror.New(apperror.CodeVenueNotSupported, apperror.WithContext(s))
	}
	return v, nil
}

// DisplayName returns the venue's marketing name.
func (v Venue) DisplayName() string {
	if name, ok := displayNames[v]; ok {
		return name
	}
	return string(v)
}

func (v Venue) String() string {
	return string(v)
}
