package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/drawdown/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar. info is right-aligned.
func RenderStatusBar(width int, info string, reloading bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	left := " [?]help  [r]eload  [q]uit"
	right := info
	if reloading {
		right = "reloading…"
	}
	if right != "" {
		right += " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}
