package rest

import (
	"time"

	"github.com/shopspring/decimal"

	arbDomain "github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	execDomain "github.com/fd1az/venue-arbitrage/business/execution/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TradeRequestBody is the payload of POST /simulate and POST /execute.
// A zero price is filled from the venue's live quote.
type TradeRequestBody struct {
	Asset     string          `json:"asset"`
	BuyVenue  string          `json:"buy_venue"`
	SellVenue string          `json:"sell_venue"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Amount    decimal.Decimal `json:"amount"`
}

type VenueFeeResponse struct {
	Venue     string          `json:"venue"`
	Name      string          `json:"name"`
	Fee       decimal.Decimal `json:"fee"`
	LatencyMs int64           `json:"latency_ms"`
}

type NetworkFeeResponse struct {
	Asset string          `json:"asset"`
	Fee   decimal.Decimal `json:"fee"`
}

type FeesResponse struct {
	Venues            []VenueFeeResponse   `json:"venues"`
	NetworkFees       []NetworkFeeResponse `json:"network_fees"`
	DefaultVenueFee   decimal.Decimal      `json:"default_venue_fee"`
	DefaultNetworkFee decimal.Decimal      `json:"default_network_fee"`
}

type QuoteResponse struct {
	Venue     string          `json:"venue"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

type QuotesResponse struct {
	Asset     string            `json:"asset"`
	Quotes    []QuoteResponse   `json:"quotes"`
	Failures  map[string]string `json:"failures,omitempty"`
	Stable    bool              `json:"stable"`
	Timestamp time.Time         `json:"timestamp"`
}

type FeeBreakdownResponse struct {
	Buy     decimal.Decimal `json:"buy"`
	Sell    decimal.Decimal `json:"sell"`
	Network decimal.Decimal `json:"network"`
	Total   decimal.Decimal `json:"total"`
}

type EconomicsResponse struct {
	Asset              string               `json:"asset"`
	BuyVenue           string               `json:"buy_venue"`
	SellVenue          string               `json:"sell_venue"`
	BuyPrice           decimal.Decimal      `json:"buy_price"`
	SellPrice          decimal.Decimal      `json:"sell_price"`
	Amount             decimal.Decimal      `json:"amount"`
	GrossProfit        decimal.Decimal      `json:"gross_profit_per_unit"`
	NetProfit          decimal.Decimal      `json:"net_profit"`
	ProfitPct          decimal.Decimal      `json:"profit_pct"`
	Profitable         bool                 `json:"profitable"`
	Fees               FeeBreakdownResponse `json:"fees"`
	Slippage           decimal.Decimal      `json:"slippage"`
	LatencyMs          int64                `json:"latency_ms"`
	EffectiveBuyPrice  decimal.Decimal      `json:"effective_buy_price"`
	EffectiveSellPrice decimal.Decimal      `json:"effective_sell_price"`
	AcquiredAmount     decimal.Decimal      `json:"acquired_amount"`
	Proceeds           decimal.Decimal      `json:"proceeds"`
}

type OpportunityResponse struct {
	ID         string            `json:"id"`
	BuyVenue   string            `json:"buy_venue"`
	SellVenue  string            `json:"sell_venue"`
	NetProfit  decimal.Decimal   `json:"net_profit"`
	ProfitPct  decimal.Decimal   `json:"profit_pct"`
	Economics  EconomicsResponse `json:"economics"`
	DetectedAt time.Time         `json:"detected_at"`
}

type AnalysisResponse struct {
	MaxPriceDifference  decimal.Decimal  `json:"max_price_difference"`
	MaxGapBuyVenue      string           `json:"max_gap_buy_venue"`
	MaxGapSellVenue     string           `json:"max_gap_sell_venue"`
	CombinedFeeFraction decimal.Decimal  `json:"combined_fee_fraction"`
	Reason              string           `json:"reason"`
	Suggestion          string           `json:"suggestion"`
	PriceStability      string           `json:"price_stability"`
	BreakEvenAmount     *decimal.Decimal `json:"break_even_amount"`
}

type ScanResponse struct {
	Asset         string                `json:"asset"`
	ProbeAmount   decimal.Decimal       `json:"probe_amount"`
	Quotes        []QuoteResponse       `json:"quotes"`
	Opportunities []OpportunityResponse `json:"opportunities"`
	Analysis      *AnalysisResponse     `json:"analysis,omitempty"`
	ScannedAt     time.Time             `json:"scanned_at"`
}

type BreakEvenResponse struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

type OutcomeResponse struct {
	ID                 string            `json:"id"`
	Status             string            `json:"status"`
	Asset              string            `json:"asset"`
	BuyVenue           string            `json:"buy_venue"`
	SellVenue          string            `json:"sell_venue"`
	Amount             decimal.Decimal   `json:"amount"`
	RealizedPnL        decimal.Decimal   `json:"realized_pnl"`
	LostAmount         decimal.Decimal   `json:"lost_amount"`
	Acquired           decimal.Decimal   `json:"acquired"`
	NewBalance         decimal.Decimal   `json:"new_balance"`
	NewHolding         decimal.Decimal   `json:"new_holding"`
	SuccessProbability float64           `json:"success_probability"`
	Reason             string            `json:"reason,omitempty"`
	Economics          EconomicsResponse `json:"economics"`
	ExecutedAt         time.Time         `json:"executed_at"`
}

type LedgerResponse struct {
	Balance  decimal.Decimal            `json:"balance"`
	Holdings map[string]decimal.Decimal `json:"holdings"`
}

type TransactionResponse struct {
	ID        string               `json:"id"`
	Type      string               `json:"type"`
	Asset     string               `json:"asset"`
	BuyVenue  string               `json:"buy_venue"`
	SellVenue string               `json:"sell_venue"`
	Amount    decimal.Decimal      `json:"amount"`
	Fees      FeeBreakdownResponse `json:"fees"`
	Slippage  decimal.Decimal      `json:"slippage"`
	LatencyMs int64                `json:"latency_ms"`
	Profit    decimal.Decimal      `json:"profit"`
	Message   string               `json:"message"`
	Timestamp time.Time            `json:"timestamp"`
}

type TransactionsResponse struct {
	Count        int                   `json:"count"`
	Transactions []TransactionResponse `json:"transactions"`
}

func quoteResponses(quotes []pricingDomain.VenueQuote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, QuoteResponse{
			Venue:     string(q.Venue),
			Price:     q.Price,
			Source:    string(q.Source),
			Timestamp: q.Timestamp,
		})
	}
	return out
}

func feeBreakdown(f arbDomain.FeeBreakdown) FeeBreakdownResponse {
	return FeeBreakdownResponse{Buy: f.Buy, Sell: f.Sell, Network: f.Network, Total: f.Total}
}

func economicsResponse(e arbDomain.TradeEconomics) EconomicsResponse {
	req := e.Request
	return EconomicsResponse{
		Asset:              req.Asset,
		BuyVenue:           string(req.BuyVenue),
		SellVenue:          string(req.SellVenue),
		BuyPrice:           req.BuyPrice,
		SellPrice:          req.SellPrice,
		Amount:             req.Amount,
		GrossProfit:        e.GrossProfit,
		NetProfit:          e.NetProfit,
		ProfitPct:          e.ProfitPct(),
		Profitable:         e.IsProfitable(),
		Fees:               feeBreakdown(e.Fees),
		Slippage:           e.Slippage,
		LatencyMs:          e.Latency.Milliseconds(),
		EffectiveBuyPrice:  e.EffectiveBuyPrice,
		EffectiveSellPrice: e.EffectiveSellPrice,
		AcquiredAmount:     e.AcquiredAmount,
		Proceeds:           e.Proceeds,
	}
}

func scanResponse(r *arbDomain.ScanResult) ScanResponse {
	resp := ScanResponse{
		Asset:         r.Asset,
		ProbeAmount:   r.ProbeAmount,
		Quotes:        quoteResponses(r.Quotes),
		Opportunities: make([]OpportunityResponse, 0, len(r.Opportunities)),
		ScannedAt:     r.ScannedAt,
	}
	for _, o := range r.Opportunities {
		resp.Opportunities = append(resp.Opportunities, OpportunityResponse{
			ID:         o.ID,
			BuyVenue:   string(o.BuyVenue),
			SellVenue:  string(o.SellVenue),
			NetProfit:  o.NetProfit(),
			ProfitPct:  o.ProfitPct,
			Economics:  economicsResponse(o.Economics),
			DetectedAt: o.DetectedAt,
		})
	}
	if a := r.Analysis; a != nil {
		resp.Analysis = &AnalysisResponse{
			MaxPriceDifference:  a.MaxPriceDifference,
			MaxGapBuyVenue:      string(a.MaxGapBuyVenue),
			MaxGapSellVenue:     string(a.MaxGapSellVenue),
			CombinedFeeFraction: a.CombinedFeeFraction,
			Reason:              a.Reason,
			Suggestion:          a.Suggestion,
			PriceStability:      string(a.PriceStability),
			BreakEvenAmount:     a.BreakEvenAmount,
		}
	}
	return resp
}

func outcomeResponse(o *execDomain.Outcome) OutcomeResponse {
	return OutcomeResponse{
		ID:                 o.ID,
		Status:             string(o.Status),
		Asset:              o.Asset,
		BuyVenue:           string(o.BuyVenue),
		SellVenue:          string(o.SellVenue),
		Amount:             o.Amount,
		RealizedPnL:        o.RealizedPnL,
		LostAmount:         o.LostAmount,
		Acquired:           o.Acquired,
		NewBalance:         o.NewBalance,
		NewHolding:         o.NewHolding,
		SuccessProbability: o.SuccessProbability,
		Reason:             o.Reason,
		Economics:          economicsResponse(o.Economics),
		ExecutedAt:         o.ExecutedAt,
	}
}

func transactionResponse(r execDomain.TransactionRecord) TransactionResponse {
	return TransactionResponse{
		ID:        r.ID,
		Type:      string(r.Type),
		Asset:     r.Asset,
		BuyVenue:  string(r.BuyVenue),
		SellVenue: string(r.SellVenue),
		Amount:    r.Amount,
		Fees:      feeBreakdown(r.Fees),
		Slippage:  r.Slippage,
		LatencyMs: r.Latency.Milliseconds(),
		Profit:    r.Profit,
		Message:   r.Message,
		Timestamp: r.Timestamp,
	}
}
