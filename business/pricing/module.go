// Package pricing implements the pricing bounded context: live spot quotes
// for one asset across the configured venues.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/fd1az/venue-arbitrage/business/pricing/app"
	pricingDI "github.com/fd1az/venue-arbitrage/business/pricing/di"
	"github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/business/pricing/infra/binance"
	"github.com/fd1az/venue-arbitrage/business/pricing/infra/coinbase"
	"github.com/fd1az/venue-arbitrage/business/pricing/infra/cryptocom"
	"github.com/fd1az/venue-arbitrage/business/pricing/infra/kraken"
	"github.com/fd1az/venue-arbitrage/business/pricing/infra/venueclient"
	"github.com/fd1az/venue-arbitrage/internal/config"
	"github.com/fd1az/venue-arbitrage/internal/di"
	"github.com/fd1az/venue-arbitrage/internal/logger"
	"github.com/fd1az/venue-arbitrage/internal/monolith"
)

const connectTimeout = 10 * time.Second

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Binance provider - private, nil when the venue is not enabled
	di.RegisterToken(c, pricingDI.BinanceProvider, func(sr di.ServiceRegistry) *binance.Provider {
		cfg := di.GetToken(sr, monolith.ConfigToken)
		log := di.GetToken(sr, monolith.LoggerToken)
		registry := di.GetToken(sr, monolith.AssetRegistryToken)

		if !enabled(cfg, domain.VenueBinance) {
			return nil
		}

		var assets []string
		if a, err := registry.Resolve(cfg.Arbitrage.Asset); err == nil {
			assets = append(assets, a.Symbol())
		}

		provider, err := binance.NewProvider(binance.ProviderConfig{
			WebSocketURL:      cfg.Venues.Binance.WebSocketURL,
			HTTPURL:           cfg.Venues.Endpoints[string(domain.VenueBinance)],
			Assets:            assets,
			StaleTimeout:      cfg.Venues.Binance.StaleTimeout,
			EnableStreaming:   cfg.Venues.Binance.EnableStreaming,
			Timeout:           cfg.Venues.QuoteTimeout,
			RequestsPerMinute: cfg.Venues.RateLimit(string(domain.VenueBinance)),
		}, log)
		if err != nil {
			panic("failed to create binance provider: " + err.Error())
		}
		return provider
	})

	// Quote providers - one per enabled venue, in config order
	di.RegisterToken(c, pricingDI.QuoteProviders, func(sr di.ServiceRegistry) []app.QuoteProvider {
		cfg := di.GetToken(sr, monolith.ConfigToken)
		log := di.GetToken(sr, monolith.LoggerToken)

		providers, err := buildProviders(cfg, log, pricingDI.GetBinanceProvider(sr))
		if err != nil {
			panic("failed to create quote providers: " + err.Error())
		}
		return providers
	})

	// PricingService (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.PricingService, func(sr di.ServiceRegistry) *app.PricingService {
		cfg := di.GetToken(sr, monolith.ConfigToken)
		log := di.GetToken(sr, monolith.LoggerToken)
		registry := di.GetToken(sr, monolith.AssetRegistryToken)

		svc, err := app.NewPricingService(pricingDI.GetQuoteProviders(sr), registry, cfg.Venues.QuoteTimeout, log)
		if err != nil {
			panic("failed to create pricing service: " + err.Error())
		}
		return svc
	})

	return nil
}

func buildProviders(cfg *config.Config, log logger.LoggerInterface, bn *binance.Provider) ([]app.QuoteProvider, error) {
	providers := make([]app.QuoteProvider, 0, len(cfg.Venues.Enabled))
	for _, name := range cfg.Venues.Enabled {
		venue, err := domain.ParseVenue(name)
		if err != nil {
			return nil, err
		}

		vc := venueclient.Config{
			BaseURL:           cfg.Venues.Endpoints[string(venue)],
			Timeout:           cfg.Venues.QuoteTimeout,
			RequestsPerMinute: cfg.Venues.RateLimit(string(venue)),
		}

		var p app.QuoteProvider
		switch venue {
		case domain.VenueCoinbase:
			p, err = coinbase.NewProvider(vc, log)
		case domain.VenueCryptoCom:
			p, err = cryptocom.NewProvider(vc, log)
		case domain.VenueKraken:
			p, err = kraken.NewProvider(vc, log)
		case domain.VenueBinance:
			if bn == nil {
				return nil, fmt.Errorf("binance enabled but provider missing")
			}
			p = bn
		default:
			return nil, fmt.Errorf("no quote adapter for venue %s", venue)
		}
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func enabled(cfg *config.Config, venue domain.Venue) bool {
	for _, name := range cfg.Venues.Enabled {
		if v, err := domain.ParseVenue(name); err == nil && v == venue {
			return true
		}
	}
	return false
}

// Startup initializes the pricing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Resolve eagerly so configuration errors surface at startup.
	svc := pricingDI.GetPricingService(mono.Services())

	bn := pricingDI.GetBinanceProvider(mono.Services())
	if bn != nil {
		mono.OnClose(bn.Close)

		// Try to connect with a short timeout - don't block startup
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := bn.Connect(connectCtx)
		cancel()

		if err != nil {
			log.Warn(ctx, "binance stream unavailable, using REST and retrying in background", "error", err)
			go func() {
				if err := bn.Connect(ctx); err != nil {
					log.Warn(ctx, "binance stream retry stopped", "error", err)
					return
				}
				log.Info(ctx, "binance stream connected")
			}()
		}
	}

	log.Info(ctx, "pricing module started", "venues", svc.Venues())
	return nil
}
