package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/drawdown/internal/cli"
	"github.com/theirongolddev/drawdown/internal/model"
	"github.com/theirongolddev/drawdown/internal/state"
)

// summaryJSON is the machine-readable form of a pass: both result lists and
// the budget they leave behind.
type summaryJSON struct {
	RunID     string                `json:"runId"`
	Successes []model.ProcessedDraw `json:"successes"`
	Errors    []model.ErroringDraw  `json:"errors"`
	Budget    model.Budget          `json:"budget"`
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Process the draw batch and show successes and errors",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	snap, err := runPass(cmd.Context())
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(summaryJSON{
			RunID:     snap.RunID,
			Successes: snap.Successes,
			Errors:    snap.Errors,
			Budget:    snap.Budget,
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DRAWDOWN  %s", cfg.Source.Kind)))
	fmt.Println()

	printTotals(snap)

	if len(snap.Outcomes) == 0 {
		fmt.Println("\n  No draw requests to process.")
		return nil
	}

	if len(snap.Successes) > 0 {
		rows := make([][]string, 0, len(snap.Successes))
		for _, s := range snap.Successes {
			o := snap.Outcomes[s.Order-1]
			rows = append(rows, []string{
				cli.FormatDrawID(s.DrawID),
				fmt.Sprintf("%d", s.Order),
				cli.FormatID(o.ItemID),
				cli.FormatAmount(o.Amount),
				o.Date,
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Successes",
			Headers: []string{"Draw", "Order", "Item", "Amount", "Effective"},
			Rows:    rows,
		}))
		fmt.Println()
	}

	if len(snap.Errors) > 0 {
		rows := make([][]string, 0, len(snap.Errors))
		for _, e := range snap.Errors {
			for i, msg := range e.ErrorMessage {
				id := ""
				if i == 0 {
					id = cli.FormatDrawID(e.DrawID)
				}
				rows = append(rows, []string{id, msg})
			}
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Errors",
			Headers: []string{"Draw", "Reason"},
			Rows:    rows,
		}))
	}

	return nil
}

func printTotals(snap state.Snapshot) {
	var accepted float64
	for _, o := range snap.Outcomes {
		if o.Accepted {
			accepted += o.Amount
		}
	}

	fmt.Println(cli.RenderKeyValue("Budget", cli.FormatAmount(snap.Budget.Amount)))
	fmt.Println(cli.RenderKeyValue("Balance remaining", cli.FormatAmount(snap.Budget.BalanceRemaining)))
	fmt.Println(cli.RenderKeyValue("Drawable", cli.FormatAmount(snap.Budget.TotalDrawable())))
	fmt.Println(cli.RenderKeyValue("Accepted", fmt.Sprintf("%s in %d draws", cli.FormatAmount(accepted), len(snap.Successes))))
	fmt.Println(cli.RenderKeyValue("Rejected", fmt.Sprintf("%d draws", len(snap.Errors))))
	fmt.Println()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
