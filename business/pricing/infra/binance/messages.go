// Package binance implements the QuoteProvider port for Binance: a miniTicker
// stream keeps a last-price cache and the REST ticker endpoint serves as
// fallback when the stream is stale or not subscribed.
package binance

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WSRequest is a SUBSCRIBE or UNSUBSCRIBE frame.
type WSRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params,omitempty"`
	ID     int64    `json:"id"`
}

// StreamEvent is one combined-stream frame. Data frames set Stream and Data;
// subscription acks set only ID and Result.
type StreamEvent struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
}

// MiniTickerEvent is the rolling 24h mini ticker.
// Stream: <symbol>@miniTicker
type MiniTickerEvent struct {
	EventType   string `json:"e"` // "24hrMiniTicker"
	EventTime   int64  `json:"E"` // ms
	Symbol      string `json:"s"`
	Close       string `json:"c"` // last price
	Open        string `json:"o"`
	High        string `json:"h"`
	Low         string `json:"l"`
	BaseVolume  string `json:"v"`
	QuoteVolume string `json:"q"`
}

// ParseClose parses the last price.
func (e *MiniTickerEvent) ParseClose() (decimal.Decimal, error) {
	return decimal.NewFromString(e.Close)
}

// Timestamp returns the event time.
func (e *MiniTickerEvent) Timestamp() time.Time {
	if e.EventTime == 0 {
		return time.Now()
	}
	return time.UnixMilli(e.EventTime)
}

// TickerPriceResponse is the body of GET /api/v3/ticker/price.
type TickerPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// SymbolFor returns the USDT market for an asset, e.g. BTC -> BTCUSDT.
func SymbolFor(asset string) string {
	return strings.ToUpper(asset) + "USDT"
}

// MiniTickerStream returns the miniTicker stream name for a symbol.
func MiniTickerStream(symbol string) string {
	return strings.ToLower(symbol) + "@miniTicker"
}

// symbolFromStream extracts the symbol from a stream name.
// Example: "btcusdt@miniTicker" -> "BTCUSDT"
func symbolFromStream(stream string) string {
	if idx := strings.Index(stream, "@"); idx > 0 {
		return strings.ToUpper(stream[:idx])
	}
	return strings.ToUpper(stream)
}
