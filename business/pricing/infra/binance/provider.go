package binance

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/venue-arbitrage/business/pricing/app"
	"github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/business/pricing/infra/venueclient"
	"github.com/fd1az/venue-arbitrage/internal/logger"
)

// Ensure Provider implements QuoteProvider.
var _ app.QuoteProvider = (*Provider)(nil)

// ProviderConfig holds configuration for the Binance provider.
type ProviderConfig struct {
	WebSocketURL      string        // WebSocket base URL (empty = default)
	HTTPURL           string        // REST API base URL (empty = default)
	Assets            []string      // Assets streamed from startup (e.g., "BTC")
	StaleTimeout      time.Duration // How long a streamed price stays usable
	EnableStreaming   bool          // false = REST only
	Timeout           time.Duration // REST request timeout
	RequestsPerMinute int           // REST request budget
}

// priceState is the last streamed price for a symbol.
type priceState struct {
	price   decimal.Decimal
	updated time.Time
}

// Provider implements QuoteProvider for Binance.
type Provider struct {
	config ProviderConfig
	logger logger.LoggerInterface
	client *Client // nil when streaming is disabled
	rest   *restClient
	guard  *venueclient.Guard

	prices   map[string]priceState
	pricesMu sync.RWMutex

	now    func() time.Time
	tracer trace.Tracer
}

// NewProvider creates a new Binance provider.
func NewProvider(cfg ProviderConfig, log logger.LoggerInterface) (*Provider, error) {
	if cfg.StaleTimeout <= 0 {
		cfg.StaleTimeout = 5 * time.Second
	}

	rest, err := newRESTClient(cfg.HTTPURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config: cfg,
		logger: log,
		rest:   rest,
		guard:  venueclient.NewGuard(domain.VenueBinance, cfg.RequestsPerMinute, log),
		prices: make(map[string]priceState),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}

	if cfg.EnableStreaming && len(cfg.Assets) > 0 {
		symbols := make([]string, 0, len(cfg.Assets))
		for _, a := range cfg.Assets {
			symbols = append(symbols, SymbolFor(a))
		}
		client, err := NewClient(ClientConfig{
			BaseURL: cfg.WebSocketURL,
			Symbols: symbols,
		}, log)
		if err != nil {
			return nil, err
		}
		client.OnMiniTicker(p.handleMiniTicker)
		p.client = client
	}

	return p, nil
}

// Connect opens the ticker stream. It is a no-op when streaming is disabled.
func (p *Provider) Connect(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	return p.client.Connect(ctx)
}

// OnConnectionChange forwards stream up/down notifications.
func (p *Provider) OnConnectionChange(fn func(connected bool)) {
	if p.client != nil {
		p.client.OnConnectionChange(fn)
	}
}

// Streaming reports whether the ticker stream is live.
func (p *Provider) Streaming() bool {
	return p.client != nil && p.client.IsConnected()
}

// Close closes the provider.
func (p *Provider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (p *Provider) Venue() domain.Venue {
	return domain.VenueBinance
}

func (p *Provider) Healthy() bool {
	return p.guard.Healthy()
}

// Quote returns the streamed price when fresh, otherwise the REST ticker price.
func (p *Provider) Quote(ctx context.Context, asset string) (domain.VenueQuote, error) {
	symbol := SymbolFor(asset)

	ctx, span := p.tracer.Start(ctx, "binance.quote",
		trace.WithAttributes(attribute.String("symbol", symbol)),
	)
	defer span.End()

	if q, ok := p.cached(asset, symbol); ok {
		span.SetAttributes(attribute.String("source", string(domain.SourceWebSocket)))
		return q, nil
	}

	p.ensureSubscribed(ctx, symbol)

	span.SetAttributes(attribute.String("source", string(domain.SourceREST)))
	q, err := p.guard.Do(ctx, func(ctx context.Context) (domain.VenueQuote, error) {
		price, err := p.rest.tickerPrice(ctx, symbol)
		if err != nil {
			return domain.VenueQuote{}, err
		}
		return domain.NewVenueQuote(domain.VenueBinance, asset, price, domain.SourceREST)
	})
	if err != nil {
		span.RecordError(err)
		return domain.VenueQuote{}, venueclient.Unavailable(domain.VenueBinance, asset, err)
	}
	return q, nil
}

func (p *Provider) cached(asset, symbol string) (domain.VenueQuote, bool) {
	p.pricesMu.RLock()
	st, ok := p.prices[symbol]
	p.pricesMu.RUnlock()

	if !ok || p.now().Sub(st.updated) > p.config.StaleTimeout {
		return domain.VenueQuote{}, false
	}

	q, err := domain.NewVenueQuote(domain.VenueBinance, asset, st.price, domain.SourceWebSocket)
	if err != nil {
		return domain.VenueQuote{}, false
	}
	q.Timestamp = st.updated
	return q, true
}

// ensureSubscribed adds a stream for symbols first asked for after startup.
func (p *Provider) ensureSubscribed(ctx context.Context, symbol string) {
	if p.client == nil || !p.client.IsConnected() || p.client.Subscribed(symbol) {
		return
	}
	if err := p.client.Subscribe(ctx, symbol); err != nil {
		p.logger.Debug(ctx, "binance subscribe failed", "symbol", symbol, "error", err)
	}
}

// handleMiniTicker stores the last price of a streamed symbol.
func (p *Provider) handleMiniTicker(event *MiniTickerEvent) {
	price, err := event.ParseClose()
	if err != nil || !price.IsPositive() {
		return
	}

	p.pricesMu.Lock()
	p.prices[event.Symbol] = priceState{price: price, updated: p.now()}
	p.pricesMu.Unlock()
}
