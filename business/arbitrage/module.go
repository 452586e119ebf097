// Package arbitrage implements the arbitrage bounded context: fee-aware
// opportunity detection across venue pairs.
package arbitrage

import (
	"context"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/app"
	arbDI "github.com/fd1az/venue-arbitrage/business/arbitrage/di"
	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/venue-arbitrage/business/arbitrage/infra"
	execDI "github.com/fd1az/venue-arbitrage/business/execution/di"
	pricingDI "github.com/fd1az/venue-arbitrage/business/pricing/di"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/internal/config"
	"github.com/fd1az/venue-arbitrage/internal/di"
	"github.com/fd1az/venue-arbitrage/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Calculator (public - the execution module settles with it)
	di.RegisterToken(c, arbDI.Calculator, func(sr di.ServiceRegistry) *app.Calculator {
		cfg := di.GetToken(sr, monolith.ConfigToken)
		return app.NewCalculator(FeeSchedule(cfg), LatencyTable(cfg))
	})

	di.RegisterToken(c, arbDI.Solver, func(sr di.ServiceRegistry) *app.BreakEvenSolver {
		cfg := di.GetToken(sr, monolith.ConfigToken)
		lo, hi, step := cfg.Arbitrage.BreakEven.Grid()
		return app.NewBreakEvenSolver(arbDI.GetCalculator(sr), app.Grid{Min: lo, Max: hi, Step: step})
	})

	di.RegisterToken(c, arbDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		log := di.GetToken(sr, monolith.LoggerToken)
		return app.NewScanner(arbDI.GetCalculator(sr), arbDI.GetSolver(sr), log)
	})

	// Reporter - private, TUI or console depending on run mode
	di.RegisterToken(c, arbDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := di.GetToken(sr, monolith.ConfigToken)
		if cfg.Arbitrage.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter(os.Stdout)
	})

	// Detector (public - started by main)
	di.RegisterToken(c, arbDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := di.GetToken(sr, monolith.ConfigToken)
		log := di.GetToken(sr, monolith.LoggerToken)
		registry := di.GetToken(sr, monolith.AssetRegistryToken)

		symbol := cfg.Arbitrage.Asset
		if a, err := registry.Resolve(symbol); err == nil {
			symbol = a.Symbol()
		}

		// A nil *Service in the interface would read as an executor.
		var executor app.Executor
		if cfg.Arbitrage.AutoExecute {
			executor = execDI.GetService(sr)
		}

		detector, err := app.NewDetector(
			pricingDI.GetPricingService(sr),
			arbDI.GetScanner(sr),
			arbDI.GetReporter(sr),
			executor,
			app.DetectorConfig{
				Asset:       symbol,
				ProbeAmount: cfg.Arbitrage.ProbeAmountDecimal(),
				Interval:    cfg.Arbitrage.ScanInterval,
				AutoExecute: cfg.Arbitrage.AutoExecute,
			},
			log,
		)
		if err != nil {
			panic("failed to create detector: " + err.Error())
		}
		return detector
	})

	return nil
}

// FeeSchedule builds the venue and network fee tables from config.
func FeeSchedule(cfg *config.Config) domain.FeeSchedule {
	return domain.NewFeeSchedule(
		cfg.Venues.FeesDecimal(),
		cfg.Assets.NetworkFeesDecimal(),
		decimal.NewFromFloat(cfg.Venues.DefaultFee),
		decimal.NewFromFloat(cfg.Assets.DefaultNetworkFee),
	)
}

// LatencyTable builds the venue latency table from config.
func LatencyTable(cfg *config.Config) domain.LatencyTable {
	return domain.NewLatencyTable(
		cfg.Venues.Latencies(),
		time.Duration(cfg.Venues.DefaultLatencyMs)*time.Millisecond,
	)
}

// Startup initializes the arbitrage module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	detector := arbDI.GetDetector(sr)
	reporter := arbDI.GetReporter(sr)
	calc := arbDI.GetCalculator(sr)

	// Stream status goes to the reporter; the first state may predate this hook.
	if bn := pricingDI.GetBinanceProvider(sr); bn != nil {
		latency := calc.Latency().Latency(pricingDomain.VenueBinance)
		bn.OnConnectionChange(func(connected bool) {
			reporter.UpdateConnectionStatus(pricingDomain.VenueBinance.DisplayName(), connected, latency)
		})
		if bn.Streaming() {
			reporter.UpdateConnectionStatus(pricingDomain.VenueBinance.DisplayName(), true, latency)
		}
	}

	mono.OnClose(detector.Stop)

	log.Info(ctx, "arbitrage module started",
		"asset", mono.Config().Arbitrage.Asset,
		"venues", len(calc.Fees().VenueFees),
		"auto_execute", mono.Config().Arbitrage.AutoExecute)
	return nil
}
