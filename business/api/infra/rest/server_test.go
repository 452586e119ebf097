package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	arbApp "github.com/fd1az/venue-arbitrage/business/arbitrage/app"
	arbDomain "github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	execApp "github.com/fd1az/venue-arbitrage/business/execution/app"
	execDomain "github.com/fd1az/venue-arbitrage/business/execution/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/internal/apperror"
	"github.com/fd1az/venue-arbitrage/internal/asset"
	"github.com/fd1az/venue-arbitrage/internal/logger"
)

type stubPricing struct {
	assets   *asset.Registry
	prices   map[pricingDomain.Venue]string
	failures map[pricingDomain.Venue]string
	err      error

	quotes    atomic.Int32
	snapshots atomic.Int32
}

func (p *stubPricing) ResolveAsset(input string) (string, error) {
	a, err := p.assets.Resolve(input)
	if err != nil {
		return "", err
	}
	return a.Symbol(), nil
}

func (p *stubPricing) Quote(_ context.Context, symbol string, v pricingDomain.Venue) (pricingDomain.VenueQuote, error) {
	p.quotes.Add(1)
	return p.quote(symbol, v)
}

func (p *stubPricing) quote(symbol string, v pricingDomain.Venue) (pricingDomain.VenueQuote, error) {
	price, ok := p.prices[v]
	if !ok {
		return pricingDomain.VenueQuote{}, apperror.New(apperror.CodeQuoteUnavailable, apperror.WithContext(string(v)))
	}
	return pricingDomain.NewVenueQuote(v, symbol, decimal.RequireFromString(price), pricingDomain.SourceREST)
}

func (p *stubPricing) Snapshot(_ context.Context, input string) (*pricingDomain.Snapshot, error) {
	p.snapshots.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	symbol, err := p.ResolveAsset(input)
	if err != nil {
		return nil, err
	}
	var quotes []pricingDomain.VenueQuote
	for v := range p.prices {
		q, err := p.quote(symbol, v)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return pricingDomain.NewSnapshot(symbol, quotes, p.failures), nil
}

// fixedSource always draws the same sample.
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func newTestServer(t *testing.T, pricing *stubPricing, balance string) *Server {
	t.Helper()
	calc := arbApp.NewCalculator(arbDomain.DefaultFeeSchedule(), arbDomain.DefaultLatencyTable())
	solver := arbApp.NewBreakEvenSolver(calc, arbApp.DefaultGrid())

	ledger, err := execDomain.NewLedger(decimal.RequireFromString(balance), nil)
	if err != nil {
		t.Fatal(err)
	}
	trader, err := execApp.NewService(calc, execApp.NewSimulator(fixedSource(0)), ledger, execDomain.NewJournal(), logger.NewDiscard())
	if err != nil {
		t.Fatal(err)
	}

	h := NewHandlers(Deps{
		Pricing:     pricing,
		Scanner:     arbApp.NewScanner(calc, solver, logger.NewDiscard()),
		Solver:      solver,
		Trader:      trader,
		Fees:        calc.Fees(),
		Latency:     calc.Latency(),
		Asset:       "BTC",
		ProbeAmount: decimal.NewFromInt(1000),
	}, logger.NewDiscard())
	return NewServer(Config{}, h, logger.NewDiscard())
}

func gapPricing() *stubPricing {
	return &stubPricing{
		assets: asset.DefaultRegistry(),
		prices: map[pricingDomain.Venue]string{
			pricingDomain.VenueBinance: "100",
			pricingDomain.VenueKraken:  "110",
		},
	}
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestServer_Fees(t *testing.T) {
	s := newTestServer(t, gapPricing(), "1000")

	w := do(t, s, http.MethodGet, "/fees", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	resp := decode[FeesResponse](t, w)
	if len(resp.Venues) != 4 {
		t.Fatalf("got %d venues, want 4", len(resp.Venues))
	}
	if resp.Venues[0].Venue != "binance" || resp.Venues[0].LatencyMs != 200 {
		t.Errorf("cheapest venue = %+v, want binance at 200ms", resp.Venues[0])
	}
	if len(resp.NetworkFees) == 0 || resp.NetworkFees[0].Asset != "ADA" {
		t.Errorf("network fees not symbol-ordered: %+v", resp.NetworkFees)
	}
}

func TestServer_RequestIDPassthrough(t *testing.T) {
	s := newTestServer(t, gapPricing(), "1000")

	r := httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.Header.Set("X-Request-ID", "abc123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	resp := decode[ErrorResponse](t, w)
	if resp.RequestID != "abc123" || resp.Code != string(apperror.CodeNotFound) {
		t.Errorf("error response = %+v", resp)
	}
}

func TestServer_Opportunities(t *testing.T) {
	s := newTestServer(t, gapPricing(), "1000")

	w := do(t, s, http.MethodGet, "/opportunities?asset=bitcoin", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	resp := decode[ScanResponse](t, w)
	if resp.Asset != "BTC" || len(resp.Quotes) != 2 {
		t.Fatalf("scan = %+v", resp)
	}
	if len(resp.Opportunities) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(resp.Opportunities))
	}
	opp := resp.Opportunities[0]
	if opp.BuyVenue != "binance" || opp.SellVenue != "kraken" {
		t.Errorf("route = %s -> %s", opp.BuyVenue, opp.SellVenue)
	}
	if opp.NetProfit.Sub(decimal.RequireFromString("64.148")).Abs().GreaterThan(decimal.RequireFromString("0.01")) {
		t.Errorf("net = %s, want ~64.148", opp.NetProfit)
	}
	if resp.Analysis != nil {
		t.Error("analysis present on a profitable scan")
	}
}

func TestServer_QueryValidation(t *testing.T) {
	s := newTestServer(t, gapPricing(), "1000")

	tests := []struct {
		target string
		status int
		code   apperror.Code
	}{
		{"/opportunities?amount=abc", http.StatusBadRequest, apperror.CodeInvalidInput},
		{"/opportunities?amount=-5", http.StatusBadRequest, apperror.CodeInvalidInput},
		{"/transactions?limit=x", http.StatusBadRequest, apperror.CodeInvalidInput},
		{"/quotes?asset=shibainu", http.StatusBadRequest, apperror.CodeAssetNotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := do(t, s, http.MethodGet, tt.target, "")
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if resp := decode[ErrorResponse](t, w); resp.Code != string(tt.code) {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
		})
	}
}

func TestServer_QuotesPropagatesNoQuotes(t *testing.T) {
	p := gapPricing()
	p.err = apperror.New(apperror.CodeNoQuotes)
	s := newTestServer(t, p, "1000")

	w := do(t, s, http.MethodGet, "/quotes", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestServer_BreakEven(t *testing.T) {
	s := newTestServer(t, gapPricing(), "1000")

	w := do(t, s, http.MethodGet, "/break-even", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	resp := decode[BreakEvenResponse](t, w)
	if !resp.Amount.IsPositive() || resp.Amount.GreaterThan(decimal.NewFromInt(1000)) {
		t.Errorf("break-even = %s, want a grid amount below the probe", resp.Amount)
	}
}

func TestServer_SimulateFillsLivePrices(t *testing.T) {
	s := newTestServer(t, gapPricing(), "1000")

	w := do(t, s, http.MethodPost, "/simulate", `{"buy_venue":"Binance","sell_venue":"kraken","amount":"1000"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	resp := decode[EconomicsResponse](t, w)
	if !resp.BuyPrice.Equal(decimal.NewFromInt(100)) || !resp.SellPrice.Equal(decimal.NewFromInt(110)) {
		t.Errorf("prices = %s / %s, want live 100 / 110", resp.BuyPrice, resp.SellPrice)
	}
	if !resp.Profitable || resp.Asset != "BTC" {
		t.Errorf("economics = %+v", resp)
	}

	// Simulation leaves the ledger alone.
	ledger := decode[LedgerResponse](t, do(t, s, http.MethodGet, "/ledger", ""))
	if !ledger.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s after simulate", ledger.Balance)
	}
}

func TestServer_TradePriceSources(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantSnapshots int32
		wantQuotes    int32
	}{
		{
			name:          "both_missing_use_one_snapshot",
			body:          `{"buy_venue":"binance","sell_venue":"kraken","amount":"1000"}`,
			wantSnapshots: 1,
		},
		{
			name:       "one_missing_uses_a_quote",
			body:       `{"buy_venue":"binance","sell_venue":"kraken","sell_price":"110","amount":"1000"}`,
			wantQuotes: 1,
		},
		{
			name: "both_given_fetch_nothing",
			body: `{"buy_venue":"binance","sell_venue":"kraken","buy_price":"100","sell_price":"110","amount":"1000"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := gapPricing()
			s := newTestServer(t, p, "1000")

			w := do(t, s, http.MethodPost, "/simulate", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", w.Code, w.Body)
			}
			resp := decode[EconomicsResponse](t, w)
			if !resp.BuyPrice.Equal(decimal.NewFromInt(100)) || !resp.SellPrice.Equal(decimal.NewFromInt(110)) {
				t.Errorf("prices = %s / %s, want 100 / 110", resp.BuyPrice, resp.SellPrice)
			}
			if got := p.snapshots.Load(); got != tt.wantSnapshots {
				t.Errorf("snapshots = %d, want %d", got, tt.wantSnapshots)
			}
			if got := p.quotes.Load(); got != tt.wantQuotes {
				t.Errorf("quotes = %d, want %d", got, tt.wantQuotes)
			}
		})
	}
}

func TestServer_SnapshotFailureReasonReachesClient(t *testing.T) {
	p := gapPricing()
	p.failures = map[pricingDomain.Venue]string{pricingDomain.VenueCoinbase: "timeout"}
	s := newTestServer(t, p, "1000")

	w := do(t, s, http.MethodPost, "/simulate", `{"buy_venue":"coinbase","sell_venue":"kraken","amount":"10"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 (body %s)", w.Code, w.Body)
	}
	resp := decode[ErrorResponse](t, w)
	if resp.Code != string(apperror.CodeQuoteUnavailable) {
		t.Errorf("code = %s, want %s", resp.Code, apperror.CodeQuoteUnavailable)
	}
	if resp.Context != "coinbase: timeout" {
		t.Errorf("context = %q, want the venue failure reason", resp.Context)
	}
}

func TestServer_ExecuteSettlesAndJournals(t *testing.T) {
	s := newTestServer(t, gapPricing(), "1000")

	body := `{"asset":"BTC","buy_venue":"binance","sell_venue":"kraken","buy_price":100,"sell_price":"110","amount":"1000"}`
	w := do(t, s, http.MethodPost, "/execute", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	out := decode[OutcomeResponse](t, w)
	if out.Status != string(execDomain.StatusSuccess) {
		t.Fatalf("status = %s, want success", out.Status)
	}

	ledger := decode[LedgerResponse](t, do(t, s, http.MethodGet, "/ledger", ""))
	if !ledger.Balance.Equal(out.NewBalance) {
		t.Errorf("ledger balance = %s, outcome says %s", ledger.Balance, out.NewBalance)
	}
	if !ledger.Holdings["BTC"].Equal(out.Acquired) {
		t.Errorf("BTC = %s, want %s", ledger.Holdings["BTC"], out.Acquired)
	}

	txs := decode[TransactionsResponse](t, do(t, s, http.MethodGet, "/transactions?limit=5", ""))
	if txs.Count != 1 || txs.Transactions[0].ID != out.ID {
		t.Errorf("transactions = %+v", txs)
	}
	if txs.Transactions[0].Type != string(execDomain.RecordArbitrageTrade) {
		t.Errorf("type = %s", txs.Transactions[0].Type)
	}
}

func TestServer_ExecuteRejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   apperror.Code
	}{
		{
			name:   "insufficient_funds",
			body:   `{"buy_venue":"binance","sell_venue":"kraken","amount":"5000"}`,
			status: http.StatusUnprocessableEntity,
			code:   apperror.CodeInsufficientFunds,
		},
		{
			name:   "unknown_venue",
			body:   `{"buy_venue":"mtgox","sell_venue":"kraken","amount":"10"}`,
			status: http.StatusBadRequest,
			code:   apperror.CodeVenueNotSupported,
		},
		{
			name:   "same_venue",
			body:   `{"buy_venue":"kraken","sell_venue":"kraken","amount":"10"}`,
			status: http.StatusBadRequest,
			code:   apperror.CodeInvalidInput,
		},
		{
			name:   "malformed_body",
			body:   `{"amount":`,
			status: http.StatusBadRequest,
			code:   apperror.CodeInvalidFormat,
		},
		{
			name:   "unknown_field",
			body:   `{"amount":"10","leverage":5}`,
			status: http.StatusBadRequest,
			code:   apperror.CodeInvalidFormat,
		},
		{
			name:   "quote_unavailable",
			body:   `{"buy_venue":"coinbase","sell_venue":"kraken","amount":"10"}`,
			status: http.StatusServiceUnavailable,
			code:   apperror.CodeQuoteUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, gapPricing(), "1000")
			w := do(t, s, http.MethodPost, "/execute", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body)
			}
			if resp := decode[ErrorResponse](t, w); resp.Code != string(tt.code) {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}

			ledger := decode[LedgerResponse](t, do(t, s, http.MethodGet, "/ledger", ""))
			if !ledger.Balance.Equal(decimal.NewFromInt(1000)) {
				t.Errorf("balance = %s after rejected trade", ledger.Balance)
			}
		})
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, gapPricing(), "1000")

	w := do(t, s, http.MethodGet, "/execute", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := newTestServer(t, gapPricing(), "1000")
	s.config.Port = 0
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Shutdown(context.Background())

	resp, err := http.Get("http://" + s.Addr().String() + "/ledger")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
