package ui

import (
	"botdash/internal/dashboard"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// NewTradeTable creates the trade log table.
func NewTradeTable() table.Model {
	columns := []table.Column{
		{Title: "Time", Width: 12},
		{Title: "Pair", Width: 12},
		{Title: "Status", Width: 10},
		{Title: "PnL", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	t.SetStyles(s)

	return t
}

// TradeRows converts trade entries to table rows, newest first.
func TradeRows(trades []dashboard.TradeEntry) []table.Row {
	rows := make([]table.Row, 0, len(trades))
	for _, e := range trades {
		rows = append(rows, table.Row{e.Time, Literal(e.Pair), Literal(e.Status), e.PnL})
	}
	return rows
}

// RenderStats renders the stats header with the bot status colored by class.
func RenderStats(v dashboard.StatsView) string {
	parts := []string{
		LabelStyle.Render("Trades ") + v.TotalTrades,
		LabelStyle.Render("Total PnL ") + v.TotalPnL,
		LabelStyle.Render("Avg PnL ") + v.AvgPnL,
		LabelStyle.Render("Status ") + StatusStyle(v.BotStatusClass).Render(Literal(v.BotStatus)),
	}
	return strings.Join(parts, "   ")
}

// RenderTerminal joins terminal lines for the viewport, one row per line.
func RenderTerminal(lines []string) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Literal(line)
	}
	return strings.Join(out, "\n")
}

// Literal makes bot-supplied text safe to print: escape sequences are
// removed and remaining control characters are shown escaped, so "a\nb"
// stays on one row as a\nb.
func Literal(s string) string {
	s = ansi.Strip(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			q := strconv.QuoteRune(r)
			b.WriteString(q[1 : len(q)-1])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
