package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Palette for one-shot command output. The TUI has its own themes.
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
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle     = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle     = lipgloss.NewStyle().Foreground(ColorTextMuted)
	fundedStyle    = lipgloss.NewStyle().Foreground(ColorGreen)
	exhaustedStyle = lipgloss.NewStyle().Foreground(ColorRed)
	warnStyle      = lipgloss.NewStyle().Foreground(ColorOrange)
	dimStyle       = lipgloss.NewStyle().Foreground(ColorTextDim)
)

// SeparatorRow is a table row that renders as a horizontal rule.
const SeparatorRow = "---"

// Table is a bordered text table. The first column is left-aligned and the
// rest are right-aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders title centered in a rounded box.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(titleStyle.Render(title))
}

func columnWidths(t Table) []int {
	cols := len(t.Headers)
	if cols == 0 && len(t.Rows) > 0 {
		cols = len(t.Rows[0])
	}
	widths := make([]int, cols)
	measure := func(cells []string) {
		for i, c := range cells {
			if i < cols {
				widths[i] = max(widths[i], utf8.RuneCountInString(c))
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		if isSeparator(row) {
			continue
		}
		measure(row)
	}
	return widths
}

func isSeparator(row []string) bool {
	return len(row) == 1 && row[0] == SeparatorRow
}

// rule writes a horizontal border line such as ╭──┬──╮.
func rule(b *strings.Builder, widths []int, left, mid, right string) {
	segs := make([]string, len(widths))
	for i, w := range widths {
		segs[i] = strings.Repeat("─", w+2)
	}
	b.WriteString(dimStyle.Render(left + strings.Join(segs, mid) + right))
	b.WriteByte('\n')
}

// cells writes one bordered row, padding each cell to its column width.
func cells(b *strings.Builder, widths []int, row []string, style lipgloss.Style) {
	sep := dimStyle.Render("│")
	b.WriteString(sep)
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		pad := strings.Repeat(" ", max(0, w-utf8.RuneCountInString(cell)))
		text := " " + pad + cell + " "
		if i == 0 {
			text = " " + cell + pad + " "
		}
		b.WriteString(style.Render(text))
		b.WriteString(sep)
	}
	b.WriteByte('\n')
}

// RenderTable renders t with box-drawing borders. A row holding only
// SeparatorRow becomes a rule.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}
	widths := columnWidths(t)

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}

	rule(&b, widths, "╭", "┬", "╮")
	if len(t.Headers) > 0 {
		cells(&b, widths, t.Headers, headerStyle)
		rule(&b, widths, "├", "┼", "┤")
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			rule(&b, widths, "├", "┼", "┤")
			continue
		}
		cells(&b, widths, row, valueStyle)
	}
	rule(&b, widths, "╰", "┴", "╯")

	return b.String()
}

// RenderFundingBar renders how much of an item's original amount is funded.
func RenderFundingBar(funded, original float64, width int) string {
	if original <= 0 || width <= 0 {
		return ""
	}

	pct := funded / original
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	filled := int(pct * float64(width))
	style := fundedStyle
	switch {
	case pct >= 1:
		style = exhaustedStyle
	case pct >= 0.9:
		style = warnStyle
	}

	bar := style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %s", bar, mutedStyle.Render(FormatPercent(pct)))
}

// RenderKeyValue renders an indented "label  value" line.
func RenderKeyValue(label, value string) string {
	return fmt.Sprintf("  %s %s", mutedStyle.Render(fmt.Sprintf("%-18s", label)), valueStyle.Render(value))
}
