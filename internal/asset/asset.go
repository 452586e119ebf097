// Package asset is the catalogue of tradable coins and the lookup from user
// input to a canonical ticker.
package asset

import (
	"fmt"
	"strings"
)

// Asset is a coin identified by its upper-case ticker.
type Asset struct {
	symbol   string
	name     string
	decimals uint8
	aliases  []string
}

// NewAsset panics on an empty symbol or an implausible precision; assets
// are declared statically.
func NewAsset(symbol, name string, decimals uint8, aliases ...string) *Asset {
	switch {
	case symbol == "":
		panic("asset: empty symbol")
	case decimals > 30:
		panic(fmt.Sprintf("asset: %s has %d decimals", symbol, decimals))
	}

	a := &Asset{symbol: strings.ToUpper(symbol), name: name, decimals: decimals}
	for _, alias := range aliases {
		a.aliases = append(a.aliases, strings.ToLower(alias))
	}
	return a
}

func (a *Asset) Symbol() string  { return a.symbol }
func (a *Asset) Decimals() uint8 { return a.decimals }
func (a *Asset) String() string  { return a.symbol }

// Name falls back to the ticker.
func (a *Asset) Name() string {
	if a.name != "" {
		return a.name
	}
	return a.symbol
}

// Aliases returns a copy of the lower-case alternative names.
func (a *Asset) Aliases() []string {
	return append([]string(nil), a.aliases...)
}
