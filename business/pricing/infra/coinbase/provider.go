// Package coinbase quotes spot prices from the Coinbase public price API.
package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/venue-arbitrage/business/pricing/app"
	"github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/business/pricing/infra/venueclient"
	"github.com/fd1az/venue-arbitrage/internal/httpclient"
	"github.com/fd1az/venue-arbitrage/internal/logger"
)

const (
	BaseAPIURL = "https://api.coinbase.com"

	tracerName = "coinbase"
)

var _ app.QuoteProvider = (*Provider)(nil)

// spotResponse is the body of GET /v2/prices/{BASE}-USD/spot.
type spotResponse struct {
	Data struct {
		Base     string `json:"base"`
		Currency string `json:"currency"`
		Amount   string `json:"amount"`
	} `json:"data"`
}

type errorResponse struct {
	Errors []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Provider implements app.QuoteProvider for Coinbase.
type Provider struct {
	client httpclient.Client
	guard  *venueclient.Guard
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewProvider creates a Coinbase provider.
func NewProvider(cfg venueclient.Config, log logger.LoggerInterface) (*Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}

	client, err := venueclient.NewHTTPClient(domain.VenueCoinbase, cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client: client,
		guard:  venueclient.NewGuard(domain.VenueCoinbase, cfg.RequestsPerMinute, log),
		logger: log,
		tracer: otel.Tracer(tracerName),
	}, nil
}

func (p *Provider) Venue() domain.Venue {
	return domain.VenueCoinbase
}

func (p *Provider) Healthy() bool {
	return p.guard.Healthy()
}

// Quote returns the USD spot price of asset.
func (p *Provider) Quote(ctx context.Context, asset string) (domain.VenueQuote, error) {
	ctx, span := p.tracer.Start(ctx, "coinbase.quote",
		trace.WithAttributes(attribute.String("asset", asset)))
	defer span.End()

	q, err := p.guard.Do(ctx, func(ctx context.Context) (domain.VenueQuote, error) {
		return p.fetch(ctx, asset)
	})
	if err != nil {
		span.RecordError(err)
		return domain.VenueQuote{}, venueclient.Unavailable(domain.VenueCoinbase, asset, err)
	}
	return q, nil
}

func (p *Provider) fetch(ctx context.Context, asset string) (domain.VenueQuote, error) {
	pair := strings.ToUpper(asset) + "-USD"

	var result spotResponse
	_, err := p.client.GetJSON(ctx, "/v2/prices/"+pair+"/spot", &result,
		httpclient.Label("endpoint", "spot"),
		httpclient.Label("pair", pair),
		httpclient.OnStatus(errorHandler),
	)
	if err != nil {
		return domain.VenueQuote{}, err
	}

	price, err := decimal.NewFromString(result.Data.Amount)
	if err != nil {
		return domain.VenueQuote{}, fmt.Errorf("parse amount %q: %w", result.Data.Amount, err)
	}

	p.logger.Debug(ctx, "coinbase quote", "pair", pair, "price", price)
	return domain.NewVenueQuote(domain.VenueCoinbase, asset, price, domain.SourceREST)
}

func errorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil && len(resp.Errors) > 0 {
		return &venueclient.APIError{Venue: domain.VenueCoinbase, StatusCode: statusCode, Message: resp.Errors[0].Message}
	}
	return &venueclient.APIError{Venue: domain.VenueCoinbase, StatusCode: statusCode, Message: string(body)}
}
