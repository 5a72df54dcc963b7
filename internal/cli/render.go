package cli

import (
	"fmt"
	"strings"

	"budget/internal/core"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	goodStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	badStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table is a bordered text table. The first column is left-aligned, the
// rest right-aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

func rule(b *strings.Builder, widths []int, left, mid, right string) {
	b.WriteString(dimStyle.Render(left))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < len(widths)-1 {
			b.WriteString(dimStyle.Render(mid))
		}
	}
	b.WriteString(dimStyle.Render(right))
	b.WriteString("\n")
}

// RenderTable renders t with box-drawing borders. A row holding the single
// cell "---" becomes a separator.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule(&b, widths, "╭", "┬", "╮")
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(fmt.Sprintf(" %-*s ", widths[i], h)))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
		rule(&b, widths, "├", "┼", "┤")
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule(&b, widths, "├", "┼", "┤")
			continue
		}
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if i == 0 {
				b.WriteString(valueStyle.Render(" " + cell + strings.Repeat(" ", pad) + " "))
			} else {
				b.WriteString(valueStyle.Render(" " + strings.Repeat(" ", pad) + cell + " "))
			}
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}
	rule(&b, widths, "╰", "┴", "╯")

	return b.String()
}

// FormatMoney renders v with two decimals and thousands separators.
func FormatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	whole, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + frac
	if neg {
		return "-" + out
	}
	return out
}

// FormatPercent renders v as a percentage with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// RenderSparkline draws values as unicode blocks scaled to the maximum.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	hi := values[0]
	for _, v := range values[1:] {
		if v > hi {
			hi = v
		}
	}
	if hi <= 0 {
		hi = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / hi * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		b.WriteRune(blocks[idx])
	}
	return b.String()
}

// RenderLimitBar shows how much of today's limit is spent.
func RenderLimitBar(spent, limit float64, width int) string {
	if limit <= 0 {
		return badStyle.Render("no spending room today")
	}
	pct := spent / limit
	filled := int(min(pct, 1) * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := goodStyle
	switch {
	case pct >= 1:
		style = badStyle
	case pct >= 0.8:
		style = warnStyle
	}
	return fmt.Sprintf("[%s] %s / %s", style.Render(bar), FormatMoney(spent), FormatMoney(limit))
}

// RenderOverview renders the dashboard figures. averageDaily is shown as
// an informational extra row.
func RenderOverview(username, localDay string, ov core.Overview, averageDaily float64) string {
	var b strings.Builder
	b.WriteString(RenderTitle(fmt.Sprintf("Budget overview · %s · %s", username, localDay)))
	b.WriteString("\n\n")

	b.WriteString(RenderTable(Table{
		Title:   "Month (rolling 30 days)",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Earnings", FormatMoney(ov.MonthlyEarnings)},
			{"Expenses", FormatMoney(ov.MonthlyExpenses)},
			{"  repeating", FormatMoney(ov.MonthlyExpensesRepeating)},
			{"  one-off", FormatMoney(ov.MonthlyExpensesNonRepeating)},
			{"---"},
			{"Savings forecast", FormatMoney(ov.SavingsForecast)},
			{"Savings rate", FormatPercent(ov.SavingsRate)},
		},
	}))
	b.WriteString("\n")

	b.WriteString(RenderTable(Table{
		Title:   "Today",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Daily limit", FormatMoney(ov.DailyLimit)},
			{"Spent today", FormatMoney(ov.TotalMoneySpentToday)},
			{"Unused limit", FormatMoney(ov.UnusedDailyLimit)},
			{"Daily earnings", FormatMoney(ov.DailyEarnings)},
			{"Avg daily expenses", FormatMoney(averageDaily)},
		},
	}))
	b.WriteString("  ")
	b.WriteString(RenderLimitBar(ov.TotalMoneySpentToday, ov.DailyLimit, 30))
	b.WriteString("\n")
	return b.String()
}

// RenderForecast renders the three projection series side by side.
func RenderForecast(username string, fc core.Forecast) string {
	var rows [][]string
	for i := 0; i < len(fc.Expense) && i < len(fc.Earnings) && i < len(fc.Savings); i++ {
		rows = append(rows, []string{
			fmt.Sprintf("+%d", i+1),
			FormatMoney(fc.Expense[i]),
			FormatMoney(fc.Earnings[i]),
			FormatMoney(fc.Savings[i]),
		})
	}

	var b strings.Builder
	b.WriteString(RenderTitle("Forecast · " + username))
	b.WriteString("\n\n")
	b.WriteString(RenderTable(Table{
		Headers: []string{"Period", "Expense", "Earnings", "Savings"},
		Rows:    rows,
	}))
	b.WriteString("  savings ")
	b.WriteString(mutedStyle.Render(RenderSparkline(fc.Savings)))
	b.WriteString("\n")
	return b.String()
}

// RenderSnapshots renders stored daily snapshots, newest first.
func RenderSnapshots(snaps []core.FinancialOverview) string {
	if len(snaps) == 0 {
		return mutedStyle.Render("  no snapshots yet") + "\n"
	}
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			s.LocalDay,
			FormatMoney(s.DailyLimit),
			FormatMoney(s.TotalMoneySpentToday),
			FormatMoney(s.UnusedDailyLimit),
			FormatMoney(s.WeeklyEarnings),
		})
	}
	return RenderTable(Table{
		Title:   "Daily snapshots",
		Headers: []string{"Day", "Limit", "Spent", "Unused", "Week earn."},
		Rows:    rows,
	})
}
