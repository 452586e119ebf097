// Package execution implements the execution bounded context: simulated
// fills settled against an in-memory ledger.
package execution

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	arbDI "github.com/fd1az/venue-arbitrage/business/arbitrage/di"
	"github.com/fd1az/venue-arbitrage/business/execution/app"
	execDI "github.com/fd1az/venue-arbitrage/business/execution/di"
	"github.com/fd1az/venue-arbitrage/business/execution/domain"
	"github.com/fd1az/venue-arbitrage/internal/di"
	"github.com/fd1az/venue-arbitrage/internal/monolith"
)

// Module implements the execution bounded context.
type Module struct{}

// RegisterServices registers all execution services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Ledger - private, seeded from config
	di.RegisterToken(c, execDI.Ledger, func(sr di.ServiceRegistry) *domain.Ledger {
		cfg := di.GetToken(sr, monolith.ConfigToken)

		ledger, err := domain.NewLedger(decimal.NewFromFloat(cfg.Ledger.StartingBalance), cfg.Ledger.HoldingsDecimal())
		if err != nil {
			panic("failed to create ledger: " + err.Error())
		}
		return ledger
	})

	di.RegisterToken(c, execDI.Journal, func(sr di.ServiceRegistry) *domain.Journal {
		return domain.NewJournal()
	})

	// Simulator - a fixed seed makes runs reproducible
	di.RegisterToken(c, execDI.Simulator, func(sr di.ServiceRegistry) *app.Simulator {
		cfg := di.GetToken(sr, monolith.ConfigToken)

		seed := cfg.Ledger.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		return app.NewSimulator(rand.New(rand.NewPCG(seed, seed)))
	})

	// Service (public - exposed to other modules)
	di.RegisterToken(c, execDI.Service, func(sr di.ServiceRegistry) *app.Service {
		log := di.GetToken(sr, monolith.LoggerToken)

		svc, err := app.NewService(
			arbDI.GetCalculator(sr),
			execDI.GetSimulator(sr),
			execDI.GetLedger(sr),
			execDI.GetJournal(sr),
			log,
		)
		if err != nil {
			panic("failed to create execution service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup initializes the execution module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := execDI.GetService(mono.Services())
	w := svc.Ledger()

	mono.Logger().Info(ctx, "execution module started",
		"balance", w.Balance.StringFixed(2),
		"holdings", len(w.Holdings),
		"seeded", mono.Config().Ledger.Seed != 0)
	return nil
}
