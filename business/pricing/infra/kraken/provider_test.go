package kraken

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/business/pricing/infra/venueclient"
	"github.com/fd1az/venue-arbitrage/internal/apperror"
	"github.com/fd1az/venue-arbitrage/internal/logger"
)

func TestPairFor(t *testing.T) {
	tests := map[string]string{
		"BTC":  "XBTUSD",
		"btc":  "XBTUSD",
		"DOGE": "XDGUSD",
		"ETH":  "ETHUSD",
		"SOL":  "SOLUSD",
	}
	for in, want := range tests {
		if got := PairFor(in); got != want {
			t.Errorf("PairFor(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestProvider_Quote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("pair") {
		case "XBTUSD":
			w.Write([]byte(`{"error":[],"result":{"XXBTZUSD":{"a":["50020.0","1","1.000"],"c":["50019.9","0.0012"]}}}`))
		case "ETHUSD":
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`busy`))
		default:
			w.Write([]byte(`{"error":["EQuery:Unknown asset pair"]}`))
		}
	}))
	defer server.Close()

	p, err := NewProvider(venueclient.Config{BaseURL: server.URL, RequestsPerMinute: 600}, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	q, err := p.Quote(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if !q.Price.Equal(decimal.RequireFromString("50019.9")) {
		t.Errorf("price = %s, want last trade 50019.9", q.Price)
	}
	if q.Venue != domain.VenueKraken || q.Asset != "BTC" {
		t.Errorf("quote = %+v", q)
	}

	for _, asset := range []string{"ETH", "NOPE"} {
		if _, err := p.Quote(context.Background(), asset); !apperror.HasCode(err, apperror.CodeQuoteUnavailable) {
			t.Errorf("Quote(%s) err = %v, want %s", asset, err, apperror.CodeQuoteUnavailable)
		}
	}
}
