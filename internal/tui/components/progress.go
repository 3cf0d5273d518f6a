package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/drawdown/internal/tui/theme"
)

// ColorForFunding returns a color for how much of an item has been drawn.
func ColorForFunding(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 1:
		return t.Exhausted
	case pct >= 0.9:
		return t.Warning
	default:
		return t.Accepted
	}
}

// FundingBar renders a labelled bar of funded/original with the drawable
// remainder. pct is clamped to [0, 1].
func FundingBar(label string, pct float64, remaining string, labelW, barWidth int) string {
	t := theme.Active

	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	if barWidth < 4 {
		barWidth = 4
	}

	color := ColorForFunding(pct)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	remainStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(pct) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", pct*100)) +
		spaceStyle.Render("  ") +
		remainStyle.Render(remaining)
}
