// Package components holds the dashboard panels.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Stats are the session counters shown under the tables.
type Stats struct {
	Scans         int64
	Opportunities int64
	Executions    int64
	Successes     int64
	Errors        int64
	Balance       decimal.Decimal
	RealizedPnL   decimal.Decimal
}

// FillRate is the percentage of executions that filled.
func (s Stats) FillRate() float64 {
	if s.Executions == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Executions) * 100
}

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	upStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	downStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

type StatsComponent struct {
	stats Stats
}

func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Apply mutates the counters in place.
func (s *StatsComponent) Apply(fn func(*Stats)) {
	fn(&s.stats)
}

func (s *StatsComponent) Stats() Stats {
	return s.stats
}

func cell(label, value string) string {
	return label + ": " + value
}

func (s *StatsComponent) View() string {
	st := s.stats

	errs := valueStyle
	if st.Errors > 0 {
		errs = downStyle
	}
	pnl := upStyle
	if st.RealizedPnL.IsNegative() {
		pnl = downStyle
	}

	counts := []string{
		cell("Scans", valueStyle.Render(fmt.Sprint(st.Scans))),
		cell("Opportunities", valueStyle.Render(fmt.Sprint(st.Opportunities))),
		cell("Executions", valueStyle.Render(fmt.Sprint(st.Executions))) + fmt.Sprintf(" (%.1f%% filled)", st.FillRate()),
	}
	money := []string{
		cell("Balance", valueStyle.Render("$"+st.Balance.StringFixed(2))),
		cell("Realized P&L", pnl.Render(fmt.Sprintf("%+.2f", st.RealizedPnL.InexactFloat64()))),
		cell("Errors", errs.Render(fmt.Sprint(st.Errors))),
	}

	return labelStyle.Render("STATS") + "\n" +
		strings.Join(counts, "  │  ") + "\n" +
		strings.Join(money, "  │  ")
}
