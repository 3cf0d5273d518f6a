package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/drawdown/internal/cli"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Per-item funding after the draw batch is applied",
	RunE:  runItems,
}

func init() {
	rootCmd.AddCommand(itemsCmd)
}

func runItems(cmd *cobra.Command, _ []string) error {
	snap, err := runPass(cmd.Context())
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(snap.Budget.BudgetItems)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("BUDGET ITEMS"))
	fmt.Println()

	if len(snap.Budget.BudgetItems) == 0 {
		fmt.Println("  Budget has no items.")
		return nil
	}

	// Accepted amount per item in this pass.
	drawn := make(map[int64]float64)
	for _, o := range snap.Outcomes {
		if o.Accepted {
			drawn[o.ItemID] += o.Amount
		}
	}

	var original, funded, thisPass float64
	rows := make([][]string, 0, len(snap.Budget.BudgetItems)+2)
	for _, item := range snap.Budget.BudgetItems {
		original += item.OriginalAmount
		funded += item.FundedToDate
		thisPass += drawn[item.ItemID]
		rows = append(rows, []string{
			cli.FormatID(item.ItemID),
			cli.FormatAmount(item.OriginalAmount),
			cli.FormatAmount(item.FundedToDate),
			cli.FormatAmount(drawn[item.ItemID]),
			cli.FormatAmount(item.Drawable()),
		})
	}
	rows = append(rows, []string{cli.SeparatorRow})
	rows = append(rows, []string{
		"TOTAL",
		cli.FormatAmount(original),
		cli.FormatAmount(funded),
		cli.FormatAmount(thisPass),
		cli.FormatAmount(original - funded),
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Item", "Original", "Funded", "This Run", "Drawable"},
		Rows:    rows,
	}))
	fmt.Println()

	for _, item := range snap.Budget.BudgetItems {
		fmt.Printf("  %-8s %s\n",
			fmt.Sprintf("Item %d", item.ItemID),
			cli.RenderFundingBar(item.FundedToDate, item.OriginalAmount, 30))
	}
	fmt.Println()
	return nil
}
