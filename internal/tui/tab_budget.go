package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/drawdown/internal/cli"
	"github.com/theirongolddev/drawdown/internal/tui/components"
)

func (a App) renderBudgetTab(cw int) string {
	b := a.snap.Budget

	var accepted float64
	for _, o := range a.snap.Outcomes {
		if o.Accepted {
			accepted += o.Amount
		}
	}

	metrics := []components.Metric{
		{Label: "Budget", Value: cli.FormatAmount(b.Amount), Note: fmt.Sprintf("%d items", len(b.BudgetItems))},
		{Label: "Balance remaining", Value: cli.FormatAmount(b.BalanceRemaining)},
		{Label: "Accepted", Value: cli.FormatAmount(accepted), Note: fmt.Sprintf("%d draws", len(a.snap.Successes))},
		{Label: "Rejected", Value: cli.FormatNumber(int64(len(a.snap.Errors))), Note: "draws"},
	}

	var out strings.Builder
	out.WriteString(components.MetricRow(metrics, cw))
	out.WriteString("\n")

	if len(b.BudgetItems) == 0 {
		out.WriteString(components.ContentCard("Items", "No budget items.", cw))
		return out.String()
	}

	inner := components.CardInnerWidth(cw)
	labelW := 0
	labels := make([]string, len(b.BudgetItems))
	for i, item := range b.BudgetItems {
		labels[i] = fmt.Sprintf("Item %d", item.ItemID)
		if len(labels[i]) > labelW {
			labelW = len(labels[i])
		}
	}

	// label, space, bar, space, pct(6), two spaces, remaining
	const remainingW = 22
	barW := inner - labelW - 1 - 1 - 6 - 2 - remainingW
	if barW < 10 {
		barW = 10
	}

	var body strings.Builder
	for i, item := range b.BudgetItems {
		if i > 0 {
			body.WriteString("\n")
		}
		remaining := fmt.Sprintf("%s of %s left", cli.FormatCompact(item.Drawable()), cli.FormatCompact(item.OriginalAmount))
		body.WriteString(components.FundingBar(labels[i], item.FundedPercent(), remaining, labelW, barW))
	}
	out.WriteString(components.ContentCard("Items", body.String(), cw))
	return out.String()
}
