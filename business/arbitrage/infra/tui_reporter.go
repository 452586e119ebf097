package infra

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/app"
	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	executionDomain "github.com/fd1az/venue-arbitrage/business/execution/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/pkg/ui"
)

var _ app.Reporter = (*TUIReporter)(nil)

// TUIReporter implements Reporter by forwarding to the Bubble Tea program.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter creates a TUIReporter that posts to the running program.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: ui.Send}
}

// Start marks the scanner step ready. The program itself is run by main.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "detector", Status: "done"})
	return nil
}

// ReportScan sends the scan result to the TUI.
func (r *TUIReporter) ReportScan(result *domain.ScanResult) {
	r.send(ui.ScanMsg{Result: result})
}

// ReportExecution sends an execution outcome to the TUI.
func (r *TUIReporter) ReportExecution(outcome *executionDomain.Outcome) {
	r.send(ui.ExecutionMsg{Outcome: outcome})
}

// ReportError sends an error to the TUI error panel.
func (r *TUIReporter) ReportError(err error) {
	r.send(ui.ErrorMsg{Error: err})
}

// UpdateQuotes sends quote updates to the TUI.
func (r *TUIReporter) UpdateQuotes(snap *pricingDomain.Snapshot) {
	r.send(ui.QuotesMsg{Snapshot: snap})
}

// UpdateConnectionStatus sends connection status to the TUI.
func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.send(ui.ConnectionStatusMsg{
		Name:      name,
		Connected: connected,
		Latency:   latency,
	})
}

// Stop is a no-op; the program exits on its own quit key or signal.
func (r *TUIReporter) Stop() error {
	return nil
}
