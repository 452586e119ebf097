// Package api exposes quotes, scans and simulated trades over a local JSON API.
package api

import (
	"context"
	"time"

	apiDI "github.com/fd1az/venue-arbitrage/business/api/di"
	"github.com/fd1az/venue-arbitrage/business/api/infra/rest"
	arbDI "github.com/fd1az/venue-arbitrage/business/arbitrage/di"
	execDI "github.com/fd1az/venue-arbitrage/business/execution/di"
	pricingDI "github.com/fd1az/venue-arbitrage/business/pricing/di"
	"github.com/fd1az/venue-arbitrage/internal/di"
	"github.com/fd1az/venue-arbitrage/internal/monolith"
)

const shutdownTimeout = 5 * time.Second

// Module implements the api context.
type Module struct{}

// RegisterServices registers the API handlers and server with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, apiDI.Handlers, func(sr di.ServiceRegistry) *rest.Handlers {
		cfg := di.GetToken(sr, monolith.ConfigToken)
		log := di.GetToken(sr, monolith.LoggerToken)
		registry := di.GetToken(sr, monolith.AssetRegistryToken)

		symbol := cfg.Arbitrage.Asset
		if a, err := registry.Resolve(symbol); err == nil {
			symbol = a.Symbol()
		}

		calc := arbDI.GetCalculator(sr)
		return rest.NewHandlers(rest.Deps{
			Pricing:     pricingDI.GetPricingService(sr),
			Scanner:     arbDI.GetScanner(sr),
			Solver:      arbDI.GetSolver(sr),
			Trader:      execDI.GetService(sr),
			Fees:        calc.Fees(),
			Latency:     calc.Latency(),
			Asset:       symbol,
			ProbeAmount: cfg.Arbitrage.ProbeAmountDecimal(),
		}, log)
	})

	di.RegisterToken(c, apiDI.Server, func(sr di.ServiceRegistry) *rest.Server {
		cfg := di.GetToken(sr, monolith.ConfigToken)
		log := di.GetToken(sr, monolith.LoggerToken)
		return rest.NewServer(rest.Config{
			Host:           cfg.API.Host,
			Port:           cfg.API.Port,
			RequestTimeout: cfg.API.RequestTimeout,
		}, apiDI.GetHandlers(sr), log)
	})

	return nil
}

// Startup binds the API server when enabled.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	if !cfg.API.Enabled {
		log.Info(ctx, "api module disabled")
		return nil
	}

	srv := apiDI.GetServer(mono.Services())
	if err := srv.Start(); err != nil {
		return err
	}
	mono.OnClose(func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info(ctx, "api module started", "addr", srv.Addr().String())
	return nil
}
