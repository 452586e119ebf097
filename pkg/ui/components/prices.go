// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// PriceRow represents one venue in the quote table.
type PriceRow struct {
	Venue    string
	Price    decimal.Decimal
	FeePct   decimal.Decimal
	Latency  time.Duration
	Source   string
	Cheapest bool
	Dearest  bool
}

// Analysis holds the scan verdict for display. Values are computed by the
// scanner; the component only formats them.
type Analysis struct {
	IsOpportunity bool
	BestPair      string
	NetProfit     decimal.Decimal
	ProfitPct     decimal.Decimal

	MaxDifference  decimal.Decimal
	MaxGapPair     string
	CombinedFeePct decimal.Decimal
	Reason         string
	Suggestion     string
	Stability      string
	BreakEven      string // empty when no grid amount pays
}

// PricesComponent renders the venue quote table and the scan verdict.
type PricesComponent struct {
	rows     []PriceRow
	failures map[string]string
	asset    string
	probe    decimal.Decimal
	analysis *Analysis
}

// NewPricesComponent creates a new prices component.
func NewPricesComponent() *PricesComponent {
	return &PricesComponent{
		asset: "BTC",
	}
}

// Update replaces the quote rows and the venues that failed to answer.
func (p *PricesComponent) Update(rows []PriceRow, failures map[string]string) {
	p.rows = rows
	p.failures = failures
}

// SetAsset sets the scanned asset and probe amount.
func (p *PricesComponent) SetAsset(asset string, probe decimal.Decimal) {
	p.asset = asset
	p.probe = probe
}

// SetAnalysis sets the latest scan verdict.
func (p *PricesComponent) SetAnalysis(a Analysis) {
	p.analysis = &a
}

// View renders the prices component.
func (p *PricesComponent) View() string {
	if len(p.rows) == 0 {
		return "Waiting for venue quotes..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("QUOTES (%s)", p.asset)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %-10s  %14s  %7s  %8s  %-9s\n", "Venue", "Price", "Fee", "Latency", "Source"))
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 56)) + "\n")

	for _, row := range p.rows {
		price := fmt.Sprintf("%14s", "$"+row.Price.StringFixed(2))
		switch {
		case row.Cheapest:
			price = positiveStyle.Render(price)
		case row.Dearest:
			price = warnStyle.Render(price)
		}
		b.WriteString(fmt.Sprintf("  %-10s  %s  %6s%%  %6dms  %-9s\n",
			row.Venue,
			price,
			row.FeePct.StringFixed(2),
			row.Latency.Milliseconds(),
			row.Source,
		))
	}

	for venue, reason := range p.failures {
		b.WriteString(negativeStyle.Render(fmt.Sprintf("  %-10s  unavailable: %s", venue, reason)) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 56)) + "\n")

	a := p.analysis
	if a == nil {
		b.WriteString(dimStyle.Render("  Waiting for first scan...") + "\n")
		return b.String()
	}

	if a.IsOpportunity {
		b.WriteString(headerStyle.Render("  OPPORTUNITY FOUND!") + "\n\n")
		b.WriteString(fmt.Sprintf("  Best route:   %s\n", dimStyle.Render(a.BestPair)))
		b.WriteString(fmt.Sprintf("  Probe amount: %s\n", dimStyle.Render("$"+p.probe.StringFixed(0))))
		b.WriteString(fmt.Sprintf("  Net profit:   %s\n", positiveStyle.Render(fmt.Sprintf("+$%s (%s%%)", a.NetProfit.StringFixed(2), a.ProfitPct.StringFixed(3)))))
		return b.String()
	}

	b.WriteString(headerStyle.Render("  WHY NO OPPORTUNITY?") + "\n\n")
	b.WriteString(fmt.Sprintf("  Widest gap:   %s\n", warnStyle.Render(fmt.Sprintf("$%s (%s)", a.MaxDifference.StringFixed(2), a.MaxGapPair))))
	b.WriteString(fmt.Sprintf("  Fees:         %s\n", negativeStyle.Render(a.CombinedFeePct.StringFixed(2)+"%")))
	b.WriteString(fmt.Sprintf("  Stability:    %s\n", dimStyle.Render(a.Stability)))
	if a.BreakEven != "" {
		b.WriteString(fmt.Sprintf("  Break-even:   %s\n", positiveStyle.Render(a.BreakEven)))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  "+a.Reason) + "\n")
	if a.Suggestion != "" {
		b.WriteString(dimStyle.Render("  "+a.Suggestion) + "\n")
	}

	return b.String()
}
