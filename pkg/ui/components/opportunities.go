package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

// OpportunityRow is one history line: a detected opportunity or a settled
// execution.
type OpportunityRow struct {
	Time       string
	Route      string
	Amount     decimal.Decimal
	Profit     decimal.Decimal
	Status     string
	Profitable bool
}

func (r OpportunityRow) cells() []string {
	return []string{
		r.Time,
		r.Route,
		"$" + r.Amount.StringFixed(0),
		fmt.Sprintf("%+.2f", r.Profit.InexactFloat64()),
		r.Status,
	}
}

const historyWindow = 10

// OpportunitiesComponent keeps the newest rows first and shows a scrollable
// window over them.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
	visible int
	offset  int
}

func NewOpportunitiesComponent(maxRows int) *OpportunitiesComponent {
	return &OpportunitiesComponent{maxRows: maxRows, visible: historyWindow}
}

// Add prepends row and drops the oldest beyond the cap.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
}

func (o *OpportunitiesComponent) Len() int { return len(o.rows) }

func (o *OpportunitiesComponent) Clear() {
	o.rows, o.offset = nil, 0
}

// ScrollUp moves towards newer rows.
func (o *OpportunitiesComponent) ScrollUp() {
	o.offset = max(o.offset-1, 0)
}

// ScrollDown moves towards older rows, stopping at the last full window.
func (o *OpportunitiesComponent) ScrollDown() {
	o.offset = min(o.offset+1, max(len(o.rows)-o.visible, 0))
}

var (
	historyTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	historyCell  = lipgloss.NewStyle().Padding(0, 1)
)

func (o *OpportunitiesComponent) View() string {
	if len(o.rows) == 0 {
		return "No opportunities detected yet..."
	}

	end := min(o.offset+o.visible, len(o.rows))
	window := o.rows[o.offset:end]

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Time", "Route", "Amount", "Profit", "Status").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col != 4 {
				return historyCell
			}
			if window[row].Profitable {
				return historyCell.Foreground(lipgloss.Color("#10B981"))
			}
			return historyCell.Foreground(lipgloss.Color("#EF4444"))
		})
	for _, r := range window {
		t.Row(r.cells()...)
	}

	var b strings.Builder
	b.WriteString(historyTitle.Render(fmt.Sprintf("HISTORY (%d)", len(o.rows))))
	b.WriteString("\n")
	b.WriteString(t.String())
	if len(o.rows) > o.visible {
		fmt.Fprintf(&b, "\n  %d-%d of %d", o.offset+1, end, len(o.rows))
	}
	return b.String()
}
