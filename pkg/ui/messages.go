package ui

import (
	"time"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	executionDomain "github.com/fd1az/venue-arbitrage/business/execution/domain"
	pricingDomain "github.com/fd1az/venue-arbitrage/business/pricing/domain"
)

// ScanMsg carries every scan result, profitable or not.
type ScanMsg struct {
	Result *domain.ScanResult
}

// QuotesMsg carries the snapshot a scan was computed from.
type QuotesMsg struct {
	Snapshot *pricingDomain.Snapshot
}

// ExecutionMsg carries a settled simulated trade.
type ExecutionMsg struct {
	Outcome *executionDomain.Outcome
}

// ConnectionStatusMsg reports a venue feed going up or down.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

type ErrorMsg struct {
	Error error
}

// TickMsg drives the welcome and startup animations.
type TickMsg struct{}

type StartModulesMsg struct{}

type LogMsg struct {
	Level   string
	Message string
}

// StepStatus is the progress of one startup step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepConnecting StepStatus = "connecting"
	StepConnected  StepStatus = "connected"
	StepDone       StepStatus = "done"
	StepFailed     StepStatus = "failed"
)

// settled reports whether the step no longer blocks the dashboard.
func (s StepStatus) settled() bool {
	return s == StepConnected || s == StepDone || s == StepFailed
}

// StartupMsg moves a startup step forward. Message, when set, is logged.
type StartupMsg struct {
	Step    string
	Status  StepStatus
	Message string
}
