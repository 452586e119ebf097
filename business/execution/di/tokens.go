// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/fd1az/venue-arbitrage/business/execution/app"
	"github.com/fd1az/venue-arbitrage/business/execution/domain"
	"github.com/fd1az/venue-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Service = di.NewToken[*app.Service]("execution.Service")
)

// Private dependency tokens - internal to execution module
var (
	Ledger    = di.NewToken[*domain.Ledger]("execution:ledger")
	Journal   = di.NewToken[*domain.Journal]("execution:journal")
	Simulator = di.NewToken[*app.Simulator]("execution:simulator")
)

// Helper functions for type-safe access
func GetService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, Service)
}

func GetLedger(c di.ServiceRegistry) *domain.Ledger {
	return di.GetToken(c, Ledger)
}

func GetJournal(c di.ServiceRegistry) *domain.Journal {
	return di.GetToken(c, Journal)
}

func GetSimulator(c di.ServiceRegistry) *app.Simulator {
	return di.GetToken(c, Simulator)
}
