// Package ui is the terminal dashboard for the venue arbitrage scanner.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/venue-arbitrage/pkg/ui/components"
)

// Phase is the screen the dashboard is on.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the splash stays up without a key press.
const WelcomeDuration = 2 * time.Second

const (
	maxErrors   = 3
	maxLogs     = 5
	maxActivity = 6
	historySize = 50
	frameRate   = 100 * time.Millisecond
)

type startupStep struct {
	key    string
	label  string
	status StepStatus
}

func defaultSteps() []startupStep {
	return []startupStep{
		{key: "config", label: "Loading configuration", status: StepPending},
		{key: "venues", label: "Preparing venue clients", status: StepPending},
		{key: "binance", label: "Connecting to Binance stream", status: StepPending},
		{key: "detector", label: "Starting scanner", status: StepPending},
	}
}

// ErrorEntry is an error shown in the error panel.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Option configures the Model.
type Option func(*Model)

// WithFees sets the fee and latency tables used to annotate quotes.
func WithFees(fees domain.FeeSchedule, latency domain.LatencyTable) Option {
	return func(m *Model) {
		m.fees = fees
		m.latency = latency
	}
}

// WithAsset sets the scanned asset and the probe amount shown with it.
func WithAsset(asset string, probe decimal.Decimal) Option {
	return func(m *Model) {
		m.prices.SetAsset(asset, probe)
	}
}

// Model is the Bubble Tea model.
type Model struct {
	prices        *components.PricesComponent
	opportunities *components.OpportunitiesComponent
	stats         *components.StatsComponent
	status        *components.StatusComponent

	keys KeyMap
	help help.Model

	fees    domain.FeeSchedule
	latency domain.LatencyTable

	phase           Phase
	welcomeStart    time.Time
	startupTime     time.Time
	startupComplete bool
	steps           []startupStep

	width, height int
	ready         bool
	quitting      bool
	paused        bool
	showLogs      bool
	showStats     bool

	lastUpdate   time.Time
	lastScanTime time.Time
	errors       []ErrorEntry
	logs         []string
	activityFeed []string
}

// New builds the model on the welcome screen.
func New(opts ...Option) Model {
	now := time.Now()
	m := Model{
		prices:        components.NewPricesComponent(),
		opportunities: components.NewOpportunitiesComponent(historySize),
		stats:         components.NewStatsComponent(),
		status:        components.NewStatusComponent(),
		keys:          DefaultKeyMap(),
		help:          help.New(),
		fees:          domain.DefaultFeeSchedule(),
		latency:       domain.DefaultLatencyTable(),
		phase:         PhaseWelcome,
		welcomeStart:  now,
		startupTime:   now,
		steps:         defaultSteps(),
		showStats:     true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(time.Time) tea.Msg { return TickMsg{} })
}

// appendCapped appends v and keeps the newest limit entries.
func appendCapped[T any](s []T, limit int, v T) []T {
	s = append(s, v)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}

func stamped(format string, args ...any) string {
	return "[" + time.Now().Format("15:04:05") + "] " + fmt.Sprintf(format, args...)
}

func (m *Model) log(level, message string) {
	m.logs = appendCapped(m.logs, maxLogs, stamped("%s: %s", level, message))
}

func (m *Model) activity(format string, args ...any) {
	m.activityFeed = appendCapped(m.activityFeed, maxActivity, stamped(format, args...))
}

func (m *Model) step(key string) *startupStep {
	for i := range m.steps {
		if m.steps[i].key == key {
			return &m.steps[i]
		}
	}
	return nil
}

// leaveWelcome starts the modules. The hook runs on its own goroutine since
// it may block on Send, which needs Update to return.
func (m *Model) leaveWelcome() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// settle moves to the dashboard once no step is still pending.
func (m *Model) settle() {
	for _, s := range m.steps {
		if !s.status.settled() {
			return
		}
	}
	m.startupComplete = true
	if m.phase == PhaseStartup {
		m.phase = PhaseDashboard
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.leaveWelcome()
		}
		return m, tick()

	case QuotesMsg:
		if msg.Snapshot == nil || m.paused {
			break
		}
		m.prices.Update(priceRows(msg.Snapshot, m.fees, m.latency))
		m.lastUpdate = time.Now()

	case ScanMsg:
		if msg.Result != nil {
			m.recordScan(msg.Result)
		}

	case ExecutionMsg:
		if msg.Outcome == nil {
			break
		}
		out := msg.Outcome
		m.stats.Apply(func(s *components.Stats) {
			s.Executions++
			if out.Succeeded() {
				s.Successes++
			}
			s.Balance = out.NewBalance
			s.RealizedPnL = s.RealizedPnL.Add(out.RealizedPnL)
		})
		m.opportunities.Add(executionRow(out))
		m.activity("execution %s %s: %+.2f", out.Status, route(out.BuyVenue, out.SellVenue), out.RealizedPnL.InexactFloat64())
		m.lastUpdate = time.Now()

	case ConnectionStatusMsg:
		now := time.Now()
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			Latency:    msg.Latency,
			LastUpdate: now,
		})
		m.lastUpdate = now
		if s := m.step(strings.ToLower(msg.Name)); s != nil {
			switch {
			case msg.Connected:
				s.status = StepConnected
			case s.status != StepDone:
				s.status = StepConnecting
			}
		}
		m.settle()

	case ErrorMsg:
		text := msg.Error.Error()
		m.log("error", text)
		m.errors = appendCapped(m.errors, maxErrors, ErrorEntry{Message: text, Timestamp: time.Now()})
		m.stats.Apply(func(s *components.Stats) { s.Errors++ })

	case LogMsg:
		m.log(msg.Level, msg.Message)

	case StartupMsg:
		if s := m.step(msg.Step); s != nil {
			s.status = msg.Status
		}
		if msg.Message != "" {
			m.log("info", msg.Message)
		}
		m.settle()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	if m.phase == PhaseWelcome {
		m.leaveWelcome()
		return m, tick()
	}

	switch {
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, m.keys.Clear):
		m.opportunities.Clear()
	case key.Matches(msg, m.keys.ClearErrors):
		m.errors = nil
	case key.Matches(msg, m.keys.Up):
		m.opportunities.ScrollUp()
	case key.Matches(msg, m.keys.Down):
		m.opportunities.ScrollDown()
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = !m.showLogs
	case key.Matches(msg, m.keys.Stats):
		m.showStats = !m.showStats
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// recordScan counts every scan, paused or not. A paused dashboard keeps its
// quotes and history frozen.
func (m *Model) recordScan(res *domain.ScanResult) {
	m.phase = PhaseDashboard
	m.lastScanTime = time.Now()
	m.stats.Apply(func(s *components.Stats) {
		s.Scans++
		s.Opportunities += int64(len(res.Opportunities))
	})
	if m.paused {
		return
	}

	m.prices.SetAnalysis(analysisFor(res))
	if best, ok := res.Best(); ok {
		m.opportunities.Add(opportunityRow(best))
		m.activity("%s: %d opportunities, best %s +$%s", res.Asset, len(res.Opportunities),
			route(best.BuyVenue, best.SellVenue), best.NetProfit().StringFixed(2))
	} else {
		m.activity("%s: %d quotes, no opportunity", res.Asset, len(res.Quotes))
	}
	m.lastUpdate = time.Now()
}

// Program is the running program. Send is a no-op until it is set.
var Program *tea.Program

// OnStartModules is called once the welcome screen is dismissed.
var OnStartModules func()

// Send delivers msg to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
