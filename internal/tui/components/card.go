// Package components provides reusable TUI widgets for the drawdown dashboard.
package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/drawdown/internal/tui/theme"
)

// Metric is one labelled value shown in a MetricCard.
type Metric struct {
	Label string
	Value string
	Note  string
}

// LayoutRow splits totalWidth into n column widths that add up to it exactly.
// Leftover columns go to the leftmost cards.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	widths := make([]int, n)
	for i := range widths {
		widths[i] = totalWidth / n
		if i < totalWidth%n {
			widths[i]++
		}
	}
	return widths
}

// onSurface is a text style drawn on the card surface color.
func onSurface(fg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(fg).Background(theme.Active.Surface)
}

// MetricCard renders a small card with label, value and an optional note.
// outerWidth is the total rendered width including border.
func MetricCard(m Metric, outerWidth int) string {
	t := theme.Active
	content := onSurface(t.TextMuted).Render(m.Label) + "\n" + onSurface(t.TextPrimary).Bold(true).Render(m.Value)
	if m.Note != "" {
		content += "\n" + onSurface(t.TextDim).Render(m.Note)
	}
	return cardStyle(t.Border, outerWidth).Render(content)
}

// MetricRow renders metric cards side by side, summing to totalWidth.
func MetricRow(metrics []Metric, totalWidth int) string {
	if len(metrics) == 0 {
		return ""
	}

	widths := LayoutRow(totalWidth, len(metrics))
	rendered := make([]string, len(metrics))
	for i, m := range metrics {
		rendered[i] = MetricCard(m, widths[i])
	}
	return CardRow(rendered)
}

// ContentCard wraps body in a bordered card, with title on the first line
// when set.
func ContentCard(title, body string, outerWidth int) string {
	t := theme.Active
	if title != "" {
		body = onSurface(t.TextMuted).Bold(true).Render(title) + "\n" + body
	}
	return cardStyle(t.Border, outerWidth).Render(body)
}

func cardStyle(border lipgloss.Color, outerWidth int) lipgloss.Style {
	t := theme.Active
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(max(outerWidth-2, 10)).
		Padding(0, 1)
}

// CardRow joins pre-rendered cards horizontally. Shorter cards are padded
// with the background color so the row has no unstyled gaps.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}

	maxH := 0
	for _, c := range cards {
		maxH = max(maxH, lipgloss.Height(c))
	}

	padded := make([]string, len(cards))
	for i, c := range cards {
		padded[i] = lipgloss.Place(lipgloss.Width(c), maxH, lipgloss.Left, lipgloss.Top, c,
			lipgloss.WithWhitespaceBackground(theme.Active.Background))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, padded...)
}

// CardInnerWidth is the text width left inside a card after border and padding.
func CardInnerWidth(outerWidth int) int {
	return max(outerWidth-4, 10)
}
