package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	arbDomain "github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	execDomain "github.com/fd1az/venue-arbitrage/business/execution/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/internal/apperror"
	"github.com/fd1az/venue-arbitrage/internal/logger"
)

const (
	defaultTransactionLimit = 20
	maxRequestBody          = 1 << 16
)

// Pricing fetches live venue quotes.
type Pricing interface {
	ResolveAsset(input string) (string, error)
	Quote(ctx context.Context, asset string, venue pricingDomain.Venue) (pricingDomain.VenueQuote, error)
	Snapshot(ctx context.Context, asset string) (*pricingDomain.Snapshot, error)
}

// Scanner ranks the venue pairs of a snapshot.
type Scanner interface {
	Scan(ctx context.Context, snap *pricingDomain.Snapshot, probe decimal.Decimal) (*arbDomain.ScanResult, error)
}

// BreakEvenSolver finds the smallest profitable trade size.
type BreakEvenSolver interface {
	Solve(asset string, quotes []pricingDomain.VenueQuote) (decimal.Decimal, error)
}

// Trader prices and settles trades against the simulated ledger.
type Trader interface {
	Preview(ctx context.Context, req arbDomain.TradeRequest) (arbDomain.TradeEconomics, error)
	Execute(ctx context.Context, req arbDomain.TradeRequest) (*execDomain.Outcome, error)
	Ledger() execDomain.Wallet
	Transactions(limit int) []execDomain.TransactionRecord
}

// Deps are the services behind the endpoints.
type Deps struct {
	Pricing     Pricing
	Scanner     Scanner
	Solver      BreakEvenSolver
	Trader      Trader
	Fees        arbDomain.FeeSchedule
	Latency     arbDomain.LatencyTable
	Asset       string          // used when a request names none
	ProbeAmount decimal.Decimal // used when /opportunities names no amount
}

// Handlers serves the JSON endpoints.
type Handlers struct {
	deps   Deps
	logger logger.LoggerInterface
}

func NewHandlers(deps Deps, log logger.LoggerInterface) *Handlers {
	return &Handlers{deps: deps, logger: log}
}

// Fees handles GET /fees.
func (h *Handlers) Fees(w http.ResponseWriter, r *http.Request) {
	resp := FeesResponse{
		DefaultVenueFee:   h.deps.Fees.DefaultVenueFee,
		DefaultNetworkFee: h.deps.Fees.DefaultNetworkFee,
	}
	for _, e := range h.deps.Fees.Venues() {
		resp.Venues = append(resp.Venues, VenueFeeResponse{
			Venue:     string(e.Venue),
			Name:      e.Venue.DisplayName(),
			Fee:       e.Fee,
			LatencyMs: h.deps.Latency.Latency(e.Venue).Milliseconds(),
		})
	}
	for _, e := range h.deps.Fees.Assets() {
		resp.NetworkFees = append(resp.NetworkFees, NetworkFeeResponse{Asset: e.Asset, Fee: e.Fee})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Quotes handles GET /quotes?asset=.
func (h *Handlers) Quotes(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Pricing.Snapshot(r.Context(), h.assetParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := QuotesResponse{
		Asset:     snap.Asset,
		Quotes:    quoteResponses(snap.Quotes),
		Stable:    snap.Stable(),
		Timestamp: snap.Timestamp,
	}
	if len(snap.Failures) > 0 {
		resp.Failures = make(map[string]string, len(snap.Failures))
		for v, reason := range snap.Failures {
			resp.Failures[string(v)] = reason
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Opportunities handles GET /opportunities?asset=&amount=.
func (h *Handlers) Opportunities(w http.ResponseWriter, r *http.Request) {
	probe := h.deps.ProbeAmount
	if s := r.URL.Query().Get("amount"); s != "" {
		amt, err := decimal.NewFromString(s)
		if err != nil || !amt.IsPositive() {
			h.writeError(w, r, apperror.Validation(apperror.CodeInvalidInput, "amount must be a positive number, got "+s))
			return
		}
		probe = amt
	}

	snap, err := h.deps.Pricing.Snapshot(r.Context(), h.assetParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.deps.Scanner.Scan(r.Context(), snap, probe)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, scanResponse(result))
}

// BreakEven handles GET /break-even?asset=.
func (h *Handlers) BreakEven(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Pricing.Snapshot(r.Context(), h.assetParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, err := h.deps.Solver.Solve(snap.Asset, snap.Quotes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, BreakEvenResponse{Asset: snap.Asset, Amount: amount})
}

// Simulate handles POST /simulate. The ledger is not touched.
func (h *Handlers) Simulate(w http.ResponseWriter, r *http.Request) {
	req, err := h.tradeRequest(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	econ, err := h.deps.Trader.Preview(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, economicsResponse(econ))
}

// Execute handles POST /execute.
func (h *Handlers) Execute(w http.ResponseWriter, r *http.Request) {
	req, err := h.tradeRequest(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.deps.Trader.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, outcomeResponse(out))
}

// Ledger handles GET /ledger.
func (h *Handlers) Ledger(w http.ResponseWriter, r *http.Request) {
	wallet := h.deps.Trader.Ledger()
	resp := LedgerResponse{
		Balance:  wallet.Balance,
		Holdings: make(map[string]decimal.Decimal, len(wallet.Holdings)),
	}
	for _, a := range wallet.Assets() {
		resp.Holdings[a] = wallet.Holding(a)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Transactions handles GET /transactions?limit=, newest first.
func (h *Handlers) Transactions(w http.ResponseWriter, r *http.Request) {
	limit := defaultTransactionLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, r, apperror.Validation(apperror.CodeInvalidInput, "limit must be a non-negative integer, got "+s))
			return
		}
		limit = n
	}

	records := h.deps.Trader.Transactions(limit)
	resp := TransactionsResponse{
		Count:        len(records),
		Transactions: make([]TransactionResponse, 0, len(records)),
	}
	for _, rec := range records {
		resp.Transactions = append(resp.Transactions, transactionResponse(rec))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// NotFound handles unknown paths.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperror.New(apperror.CodeNotFound,
		apperror.WithContext(r.Method+" "+r.URL.Path),
		apperror.WithStatusCode(http.StatusNotFound)))
}

// MethodNotAllowed handles a known path called with the wrong method.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperror.New(apperror.CodeInvalidInput,
		apperror.WithMessage("Method not allowed"),
		apperror.WithContext(r.Method+" "+r.URL.Path),
		apperror.WithStatusCode(http.StatusMethodNotAllowed)))
}

func (h *Handlers) assetParam(r *http.Request) string {
	if a := r.URL.Query().Get("asset"); a != "" {
		return a
	}
	return h.deps.Asset
}

// tradeRequest decodes the body and fills missing prices from live quotes.
// When both are missing they come from one snapshot.
func (h *Handlers) tradeRequest(w http.ResponseWriter, r *http.Request) (arbDomain.TradeRequest, error) {
	var body TradeRequestBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return arbDomain.TradeRequest{}, apperror.New(apperror.CodeInvalidFormat,
			apperror.WithCause(err),
			apperror.WithContext("request body"),
			apperror.WithStatusCode(http.StatusBadRequest))
	}

	if body.Asset == "" {
		body.Asset = h.deps.Asset
	}
	symbol, err := h.deps.Pricing.ResolveAsset(body.Asset)
	if err != nil {
		return arbDomain.TradeRequest{}, err
	}
	buy, err := pricingDomain.ParseVenue(body.BuyVenue)
	if err != nil {
		return arbDomain.TradeRequest{}, err
	}
	sell, err := pricingDomain.ParseVenue(body.SellVenue)
	if err != nil {
		return arbDomain.TradeRequest{}, err
	}

	req := arbDomain.TradeRequest{
		Asset:     symbol,
		BuyVenue:  buy,
		SellVenue: sell,
		BuyPrice:  body.BuyPrice,
		SellPrice: body.SellPrice,
		Amount:    body.Amount,
	}

	if req.BuyPrice.IsZero() && req.SellPrice.IsZero() {
		if err := h.priceFromSnapshot(r.Context(), &req); err != nil {
			return arbDomain.TradeRequest{}, err
		}
		return req, nil
	}

	g, gctx := errgroup.WithContext(r.Context())
	if req.BuyPrice.IsZero() {
		g.Go(func() error {
			q, err := h.deps.Pricing.Quote(gctx, symbol, buy)
			if err != nil {
				return err
			}
			req.BuyPrice = q.Price
			return nil
		})
	}
	if req.SellPrice.IsZero() {
		g.Go(func() error {
			q, err := h.deps.Pricing.Quote(gctx, symbol, sell)
			if err != nil {
				return err
			}
			req.SellPrice = q.Price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return arbDomain.TradeRequest{}, err
	}
	return req, nil
}

// priceFromSnapshot prices both legs from one fetch round.
func (h *Handlers) priceFromSnapshot(ctx context.Context, req *arbDomain.TradeRequest) error {
	snap, err := h.deps.Pricing.Snapshot(ctx, req.Asset)
	if err != nil {
		return err
	}
	buy, err := snapshotQuote(snap, req.BuyVenue)
	if err != nil {
		return err
	}
	sell, err := snapshotQuote(snap, req.SellVenue)
	if err != nil {
		return err
	}
	req.BuyPrice, req.SellPrice = buy.Price, sell.Price
	return nil
}

func snapshotQuote(snap *pricingDomain.Snapshot, v pricingDomain.Venue) (pricingDomain.VenueQuote, error) {
	if q, ok := snap.Quote(v); ok {
		return q, nil
	}
	detail := v.String()
	if reason, ok := snap.Failures[v]; ok {
		detail += ": " + reason
	}
	return pricingDomain.VenueQuote{}, apperror.New(apperror.CodeQuoteUnavailable, apperror.WithContext(detail))
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn(context.Background(), "failed to encode response", "error", err)
	}
}

// writeError maps err to its AppError status. Anything else is a 500.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(apperror.CodeInternalError, "", err)
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", append([]any{"path", r.URL.Path}, appErr.LogFields()...)...)
	}

	h.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Code:      string(appErr.Code),
		Message:   appErr.Message,
		Context:   appErr.Context,
		RequestID: RequestID(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}
