// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/venue-arbitrage/business/arbitrage/app"
	"github.com/fd1az/venue-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Calculator = di.NewToken[*app.Calculator]("arbitrage.Calculator")
	Solver     = di.NewToken[*app.BreakEvenSolver]("arbitrage.BreakEvenSolver")
	Scanner    = di.NewToken[*app.Scanner]("arbitrage.Scanner")
	Detector   = di.NewToken[*app.Detector]("arbitrage.Detector")
)

// Private dependency tokens - internal to arbitrage module
var (
	Reporter = di.NewToken[app.Reporter]("arbitrage:reporter")
)

// Helper functions for type-safe access
func GetCalculator(c di.ServiceRegistry) *app.Calculator {
	return di.GetToken(c, Calculator)
}

func GetSolver(c di.ServiceRegistry) *app.BreakEvenSolver {
	return di.GetToken(c, Solver)
}

func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
