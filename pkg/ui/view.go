package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const splash = `
   ██╗   ██╗███████╗███╗   ██╗██╗   ██╗███████╗
   ██║   ██║██╔════╝████╗  ██║██║   ██║██╔════╝
   ██║   ██║█████╗  ██╔██╗ ██║██║   ██║█████╗
   ╚██╗ ██╔╝██╔══╝  ██║╚██╗██║██║   ██║██╔══╝
    ╚████╔╝ ███████╗██║ ╚████║╚██████╔╝███████╗
     ╚═══╝  ╚══════╝╚═╝  ╚═══╝ ╚═════╝ ╚══════╝
`

var spinner = []string{"◐", "◓", "◑", "◒"}

func frame(elapsed, every time.Duration) string {
	return spinner[int(elapsed/every)%len(spinner)]
}

func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}
	switch m.phase {
	case PhaseWelcome:
		return m.welcomeView()
	case PhaseStartup:
		return m.startupView()
	}

	sections := []string{
		bannerStyle.Render(" Venue Arbitrage Scanner "),
		m.statusLine(),
		m.panels(),
	}
	if m.showStats {
		sections = append(sections, m.stats.View())
	}
	if m.showLogs && len(m.logs) > 0 {
		sections = append(sections, m.logView())
	}
	if len(m.errors) > 0 {
		sections = append(sections, m.errorView())
	}
	return strings.Join(sections, "\n\n") + "\n\n" + m.footer()
}

// panels puts quotes beside the activity column on wide terminals and
// stacks them otherwise.
func (m Model) panels() string {
	left := m.prices.View()
	right := m.activityView() + "\n\n" + m.opportunities.View()

	if m.width > 100 {
		w := m.width/2 - 2
		return lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Width(w).Render(left),
			panelStyle.Width(w).Render(right))
	}
	w := max(m.width-4, 40)
	return panelStyle.Width(w).Render(left) + "\n" + panelStyle.Width(w).Render(right)
}

func (m Model) footer() string {
	keys := helpStyle.Render(m.help.View(m.keys))
	if !m.paused {
		return keys
	}
	return lipgloss.NewStyle().Bold(true).Foreground(colorWarn).Render("⏸ PAUSED") + " • " + keys
}

func (m Model) logView() string {
	lines := []string{sectionStyle.Render("LOGS")}
	for _, l := range m.logs {
		lines = append(lines, dimStyle.Render("  "+l))
	}
	return strings.Join(lines, "\n")
}

func (m Model) errorView() string {
	loss := lipgloss.NewStyle().Foreground(colorLoss)
	lines := []string{loss.Bold(true).Render("ERRORS") + dimStyle.Render(" (e: clear)")}
	for _, e := range m.errors {
		ago := time.Since(e.Timestamp).Round(time.Second)
		lines = append(lines, loss.Render("  • "+e.Message+" ")+dimStyle.Render(fmt.Sprintf("(%s ago)", ago)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) activityView() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("LIVE ACTIVITY") + "\n\n")
	if len(m.activityFeed) == 0 {
		b.WriteString(dimStyle.Render("  Waiting for first scan..."))
		return b.String()
	}
	for _, line := range m.activityFeed {
		style := dimStyle
		if strings.Contains(line, "execution") {
			style = tradeStyle
		}
		b.WriteString(style.Render("  "+line) + "\n")
	}
	return b.String()
}

func (m Model) welcomeView() string {
	dots := strings.Repeat(".", int(time.Since(m.welcomeStart)/(300*time.Millisecond))%4)
	return strings.Join([]string{
		"\n\n\n",
		lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(splash),
		dimStyle.Render("            A R B I T R A G E   S C A N N E R") + "\n\n",
		lipgloss.NewStyle().Bold(true).Foreground(colorWarn).Render("        coinbase · crypto.com · binance · kraken") + "\n\n",
		lipgloss.NewStyle().Foreground(colorGain).Render("                  Initializing"+dots) + "\n",
		dimStyle.Render("            Press any key to skip, or wait...") + "\n",
	}, "\n")
}

func (m Model) stepLine(s startupStep) string {
	var icon, text string
	style := dimStyle
	switch s.status {
	case StepConnected, StepDone:
		icon, text, style = "✓", "Ready", lipgloss.NewStyle().Foreground(colorGain)
	case StepConnecting:
		icon, text, style = frame(time.Since(m.startupTime), 200*time.Millisecond), "Connecting...", lipgloss.NewStyle().Foreground(colorWarn)
	case StepFailed:
		icon, text, style = "✗", "Failed (REST fallback)", lipgloss.NewStyle().Foreground(colorLoss)
	default:
		icon, text = "○", "Pending"
	}
	return fmt.Sprintf("  %s %s %s", style.Render(icon), dimStyle.Render(s.label), style.Render(text))
}

func (m Model) startupView() string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1).Render("  Venue Arbitrage Scanner"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Render("  Starting up..."))
	b.WriteString("\n\n")
	for _, s := range m.steps {
		b.WriteString(m.stepLine(s) + "\n")
	}
	fmt.Fprintf(&b, "\n%s\n\n%s\n",
		dimStyle.Render("  Elapsed: "+time.Since(m.startupTime).Round(time.Second).String()),
		dimStyle.Render("  Waiting for first scan..."))
	return b.String()
}

// statusLine shows a scan spinner, the scan count, feed states and data age.
func (m Model) statusLine() string {
	var parts []string
	if time.Since(m.lastScanTime) < 500*time.Millisecond {
		parts = append(parts, gainStyle.Bold(true).Render(frame(time.Duration(time.Now().UnixNano()), frameRate)+" Scanning"))
	}
	if scans := m.stats.Stats().Scans; scans > 0 {
		parts = append(parts, gainStyle.Render(fmt.Sprintf("Scans: %d", scans)))
	}
	parts = append(parts, m.status.View())
	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		fresh := ""
		if ago < 2*time.Second {
			fresh = " ▪"
		}
		parts = append(parts, dimStyle.Render(fmt.Sprintf("Updated: %s ago%s", ago, fresh)))
	}
	return strings.Join(parts, "  │  ")
}
