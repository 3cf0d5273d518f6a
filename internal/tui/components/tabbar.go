package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/drawdown/internal/tui/theme"
)

// Tab is one page of the dashboard. Its shortcut key is the first letter of
// its name.
type Tab struct {
	Name string
	Key  rune
}

// Tabs in display order.
var Tabs = []Tab{
	{Name: "Budget", Key: 'b'},
	{Name: "Successes", Key: 's'},
	{Name: "Errors", Key: 'e'},
}

// TabVisualWidth is the rendered width of a tab: one column of padding each
// side, plus two for the brackets around an inactive tab's key.
func TabVisualWidth(tab Tab, active bool) int {
	w := lipgloss.Width(tab.Name) + 2
	if !active {
		w += 2
	}
	return w
}

// RenderTabBar renders every tab on one line, highlighting activeIdx.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active
	bar := lipgloss.NewStyle().Background(t.Surface)
	text := bar.Foreground(t.TextMuted)
	bracket := bar.Foreground(t.TextDim)
	key := bar.Foreground(t.Accent).Bold(true)
	active := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Highlight).Bold(true).Padding(0, 1)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts[i] = active.Render(tab.Name)
			continue
		}
		parts[i] = text.Render(" ") +
			bracket.Render("[") + key.Render(tab.Name[:1]) + bracket.Render("]") +
			text.Render(tab.Name[1:]+" ")
	}

	return bar.Width(width).Render(strings.Join(parts, bar.Render(" ")))
}

// TabIdxByKey returns the index of the tab bound to key, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
