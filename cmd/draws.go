package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/drawdown/internal/cli"
	"github.com/theirongolddev/drawdown/internal/model"
)

var drawsCmd = &cobra.Command{
	Use:   "draws",
	Short: "Every draw request in processing order with its outcome",
	RunE:  runDraws,
}

var (
	drawsLimit        int
	drawsRejectedOnly bool
)

func init() {
	drawsCmd.Flags().IntVarP(&drawsLimit, "limit", "l", 0, "Number of draws to show (0 for all)")
	drawsCmd.Flags().BoolVar(&drawsRejectedOnly, "rejected", false, "Only show rejected draws")
	rootCmd.AddCommand(drawsCmd)
}

func runDraws(cmd *cobra.Command, _ []string) error {
	snap, err := runPass(cmd.Context())
	if err != nil {
		return err
	}

	outcomes := filterOutcomes(snap.Outcomes, drawsRejectedOnly, drawsLimit)

	if flagJSON {
		return printJSON(outcomes)
	}

	if len(outcomes) == 0 {
		fmt.Println("\n  No draw requests found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DRAWS  %s (showing %d of %d)", cfg.Source.Kind, len(outcomes), len(snap.Outcomes))))
	fmt.Println()

	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		amount := ""
		if o.Amount != 0 {
			amount = cli.FormatAmount(o.Amount)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", o.Order),
			cli.FormatDrawID(o.DrawID),
			cli.FormatID(o.ItemID),
			amount,
			truncate(o.Date, 10),
			outcomeLabel(o.Accepted),
			truncate(strings.Join(o.Messages, " "), 60),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"#", "Draw", "Item", "Amount", "Effective", "Result", "Reason"},
		Rows:    rows,
	}))

	return nil
}

func filterOutcomes(all []model.Outcome, rejectedOnly bool, limit int) []model.Outcome {
	out := make([]model.Outcome, 0, len(all))
	for _, o := range all {
		if rejectedOnly && o.Accepted {
			continue
		}
		out = append(out, o)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func outcomeLabel(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "rejected"
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
