package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/drawdown/internal/cli"
	"github.com/theirongolddev/drawdown/internal/model"
	"github.com/theirongolddev/drawdown/internal/tui/components"
	"github.com/theirongolddev/drawdown/internal/tui/theme"
)

// outcomeFor finds the processed outcome for an order.
func (a App) outcomeFor(order int) (model.Outcome, bool) {
	if order < 1 || order > len(a.snap.Outcomes) {
		return model.Outcome{}, false
	}
	o := a.snap.Outcomes[order-1]
	return o, o.Order == order
}

// tabLines returns the scrollable lines of a list tab, unstyled.
func (a App) tabLines(tab int) []string {
	switch tab {
	case tabSuccesses:
		lines := make([]string, 0, len(a.snap.Successes))
		for _, s := range a.snap.Successes {
			line := fmt.Sprintf("#%-3d draw %-5s", s.Order, cli.FormatDrawID(s.DrawID))
			if o, ok := a.outcomeFor(s.Order); ok {
				line += fmt.Sprintf(" item %-5s %14s  %s", cli.FormatID(o.ItemID), cli.FormatAmount(o.Amount), o.Date)
			}
			lines = append(lines, line)
		}
		return lines

	case tabErrors:
		var lines []string
		for _, e := range a.snap.Errors {
			lines = append(lines, fmt.Sprintf("draw %s", cli.FormatDrawID(e.DrawID)))
			for _, m := range e.ErrorMessage {
				lines = append(lines, "  · "+m)
			}
		}
		return lines
	}
	return nil
}

func (a App) renderListTab(cw, h int) string {
	t := theme.Active

	title := "Accepted draws"
	empty := "No draws were accepted."
	if a.activeTab == tabErrors {
		title = "Rejected draws"
		empty = "No draws were rejected."
	}

	lines := a.tabLines(a.activeTab)
	if len(lines) == 0 {
		return components.ContentCard(title, empty, cw)
	}

	// Card border, title and a footer line.
	visible := h - 4
	if visible < 1 {
		visible = 1
	}
	offset := a.scroll[a.activeTab]
	end := offset + visible
	if end > len(lines) {
		end = len(lines)
	}

	headStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	msgStyle := lipgloss.NewStyle().Foreground(t.Rejected).Background(t.Surface)
	okStyle := lipgloss.NewStyle().Foreground(t.Accepted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	inner := components.CardInnerWidth(cw)
	var body strings.Builder
	for i, line := range lines[offset:end] {
		if i > 0 {
			body.WriteString("\n")
		}
		line = truncStr(line, inner)
		switch {
		case a.activeTab == tabSuccesses:
			body.WriteString(okStyle.Render(line))
		case strings.HasPrefix(line, "  "):
			body.WriteString(msgStyle.Render(line))
		default:
			body.WriteString(headStyle.Render(line))
		}
	}
	body.WriteString("\n")
	body.WriteString(dimStyle.Render(fmt.Sprintf("%d-%d of %d lines", offset+1, end, len(lines))))

	return components.ContentCard(title, body.String(), cw)
}
