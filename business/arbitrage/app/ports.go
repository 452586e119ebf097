package app

import (
	"context"
	"time"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	executionDomain "github.com/fd1az/venue-arbitrage/business/execution/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
)

// QuoteSource provides the latest quotes for an asset across venues.
type QuoteSource interface {
	Snapshot(ctx context.Context, asset string) (*pricingDomain.Snapshot, error)
}

// Executor settles an opportunity against the ledger.
type Executor interface {
	ExecuteOpportunity(ctx context.Context, opp *domain.Opportunity) (*executionDomain.Outcome, error)
}

// Reporter defines the interface for reporting scan results.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// ReportScan publishes the outcome of one scan, with or without opportunities.
	ReportScan(result *domain.ScanResult)

	// ReportExecution publishes an automatic execution outcome.
	ReportExecution(outcome *executionDomain.Outcome)

	// ReportError publishes a failed scan or a rejected execution.
	ReportError(err error)

	// UpdateQuotes updates the current price display.
	UpdateQuotes(snap *pricingDomain.Snapshot)

	// UpdateConnectionStatus updates a connection status display.
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
