// Package kraken quotes last trade prices from the Kraken public Ticker API.
package kraken

import (
	"context"
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
	BaseAPIURL = "https://api.kraken.com"

	tickerEndpoint = "/0/public/Ticker"
	tracerName     = "kraken"
)

var _ app.QuoteProvider = (*Provider)(nil)

// Kraken's legacy asset codes.
var krakenBase = map[string]string{
	"BTC":  "XBT",
	"DOGE": "XDG",
}

type tickerResponse struct {
	Error  []string               `json:"error"`
	Result map[string]tickerEntry `json:"result"`
}

type tickerEntry struct {
	LastTrade []string `json:"c"` // [price, lot volume]
}

// Provider implements app.QuoteProvider for Kraken.
type Provider struct {
	client httpclient.Client
	guard  *venueclient.Guard
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewProvider creates a Kraken provider.
func NewProvider(cfg venueclient.Config, log logger.LoggerInterface) (*Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}

	client, err := venueclient.NewHTTPClient(domain.VenueKraken, cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client: client,
		guard:  venueclient.NewGuard(domain.VenueKraken, cfg.RequestsPerMinute, log),
		logger: log,
		tracer: otel.Tracer(tracerName),
	}, nil
}

func (p *Provider) Venue() domain.Venue {
	return domain.VenueKraken
}

func (p *Provider) Healthy() bool {
	return p.guard.Healthy()
}

// PairFor returns the Kraken pair name for a USD quote of asset.
func PairFor(asset string) string {
	base := strings.ToUpper(asset)
	if k, ok := krakenBase[base]; ok {
		base = k
	}
	return base + "USD"
}

// Quote returns the last trade price of asset in USD.
func (p *Provider) Quote(ctx context.Context, asset string) (domain.VenueQuote, error) {
	ctx, span := p.tracer.Start(ctx, "kraken.quote",
		trace.WithAttributes(attribute.String("asset", asset)))
	defer span.End()

	q, err := p.guard.Do(ctx, func(ctx context.Context) (domain.VenueQuote, error) {
		return p.fetch(ctx, asset)
	})
	if err != nil {
		span.RecordError(err)
		return domain.VenueQuote{}, venueclient.Unavailable(domain.VenueKraken, asset, err)
	}
	return q, nil
}

func (p *Provider) fetch(ctx context.Context, asset string) (domain.VenueQuote, error) {
	pair := PairFor(asset)

	var result tickerResponse
	_, err := p.client.GetJSON(ctx, tickerEndpoint, &result,
		httpclient.Query("pair", pair),
		httpclient.Label("endpoint", "ticker"),
		httpclient.Label("pair", pair),
		httpclient.OnStatus(errorHandler),
	)
	if err != nil {
		return domain.VenueQuote{}, err
	}

	if len(result.Error) > 0 {
		return domain.VenueQuote{}, &venueclient.APIError{
			Venue:   domain.VenueKraken,
			Message: strings.Join(result.Error, "; "),
		}
	}

	// The result key is Kraken's canonical pair name (e.g. XXBTZUSD), not
	// necessarily the one requested; a single-pair query has one entry.
	for name, entry := range result.Result {
		if len(entry.LastTrade) == 0 {
			return domain.VenueQuote{}, fmt.Errorf("pair %s has no last trade", name)
		}
		price, err := decimal.NewFromString(entry.LastTrade[0])
		if err != nil {
			return domain.VenueQuote{}, fmt.Errorf("parse last trade %q: %w", entry.LastTrade[0], err)
		}
		p.logger.Debug(ctx, "kraken quote", "pair", name, "price", price)
		return domain.NewVenueQuote(domain.VenueKraken, asset, price, domain.SourceREST)
	}
	return domain.VenueQuote{}, fmt.Errorf("pair %s not in ticker response", pair)
}

func errorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		return &venueclient.APIError{Venue: domain.VenueKraken, StatusCode: statusCode, Message: string(body)}
	}
	return nil
}
