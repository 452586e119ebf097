// Package cryptocom quotes last traded prices from the Crypto.com public ticker API.
package cryptocom

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
	BaseAPIURL = "https://api.crypto.com"

	tickerEndpoint = "/v2/public/get-ticker"
	tracerName     = "cryptocom"
)

var _ app.QuoteProvider = (*Provider)(nil)

type tickerResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Result  struct {
		Data []ticker `json:"data"`
	} `json:"result"`
}

type ticker struct {
	Instrument string          `json:"i"`
	LastPrice  decimal.Decimal `json:"a"`
}

// Provider implements app.QuoteProvider for Crypto.com. Assets are quoted
// against USDT.
type Provider struct {
	client httpclient.Client
	guard  *venueclient.Guard
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewProvider creates a Crypto.com provider.
func NewProvider(cfg venueclient.Config, log logger.LoggerInterface) (*Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}

	client, err := venueclient.NewHTTPClient(domain.VenueCryptoCom, cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client: client,
		guard:  venueclient.NewGuard(domain.VenueCryptoCom, cfg.RequestsPerMinute, log),
		logger: log,
		tracer: otel.Tracer(tracerName),
	}, nil
}

func (p *Provider) Venue() domain.Venue {
	return domain.VenueCryptoCom
}

func (p *Provider) Healthy() bool {
	return p.guard.Healthy()
}

// Quote returns the last traded price of asset against USDT.
func (p *Provider) Quote(ctx context.Context, asset string) (domain.VenueQuote, error) {
	ctx, span := p.tracer.Start(ctx, "cryptocom.quote",
		trace.WithAttributes(attribute.String("asset", asset)))
	defer span.End()

	q, err := p.guard.Do(ctx, func(ctx context.Context) (domain.VenueQuote, error) {
		return p.fetch(ctx, asset)
	})
	if err != nil {
		span.RecordError(err)
		return domain.VenueQuote{}, venueclient.Unavailable(domain.VenueCryptoCom, asset, err)
	}
	return q, nil
}

func (p *Provider) fetch(ctx context.Context, asset string) (domain.VenueQuote, error) {
	instrument := strings.ToUpper(asset) + "_USDT"

	var result tickerResponse
	_, err := p.client.GetJSON(ctx, tickerEndpoint, &result,
		httpclient.Query("instrument_name", instrument),
		httpclient.Label("endpoint", "get-ticker"),
		httpclient.Label("instrument", instrument),
		httpclient.OnStatus(errorHandler),
	)
	if err != nil {
		return domain.VenueQuote{}, err
	}

	if result.Code != 0 {
		return domain.VenueQuote{}, &venueclient.APIError{
			Venue:   domain.VenueCryptoCom,
			Message: fmt.Sprintf("code %d: %s", result.Code, result.Message),
		}
	}

	for _, t := range result.Result.Data {
		if t.Instrument == instrument {
			p.logger.Debug(ctx, "cryptocom quote", "instrument", instrument, "price", t.LastPrice)
			return domain.NewVenueQuote(domain.VenueCryptoCom, asset, t.LastPrice, domain.SourceREST)
		}
	}
	return domain.VenueQuote{}, fmt.Errorf("instrument %s not in ticker response", instrument)
}

func errorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		return &venueclient.APIError{Venue: domain.VenueCryptoCom, StatusCode: statusCode, Message: string(body)}
	}
	return nil
}
