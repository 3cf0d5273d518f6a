package pipeline

import (
	"fmt"

	"github.com/theirongolddev/drawdown/internal/model"
)

// Result is the outcome of one allocation pass.
type Result struct {
	Successes []model.ProcessedDraw
	Errors    []model.ErroringDraw
	// Outcomes lists every request in processed order.
	Outcomes []model.Outcome
	// Budget is the working copy after every accepted draw was applied.
	Budget model.Budget
}

// Accepted returns the total amount of accepted draws.
func (r Result) Accepted() float64 {
	var total float64
	for _, o := range r.Outcomes {
		if o.Accepted {
			total += o.Amount
		}
	}
	return total
}

// NotFoundMessage is reported when a validated request names no budget item.
func NotFoundMessage(itemID int64) string {
	return fmt.Sprintf("item with ID %d not found.", itemID)
}

// OverdraftMessage is reported when a draw exceeds its item's drawable amount.
func OverdraftMessage(itemID int64) string {
	return fmt.Sprintf("Processing this draw request will overdraft budget %d.", itemID)
}

// Allocate applies requests to a private copy of budget in effective-date order.
// Each request is validated first; valid requests are accepted when their item
// can cover the amount. Neither budget nor requests are modified.
func Allocate(budget model.Budget, requests []model.DrawRequest, policy Policy) Result {
	working := budget.Clone()
	validator := Validator{Budget: budget, Policy: policy}

	res := Result{
		Successes: []model.ProcessedDraw{},
		Errors:    []model.ErroringDraw{},
		Outcomes:  make([]model.Outcome, 0, len(requests)),
	}

	for i, req := range SortByEffectiveDate(requests) {
		order := i + 1
		out := model.Outcome{
			Order:  order,
			DrawID: req.ID(),
			ItemID: req.Item(),
			Amount: req.Amount.Value,
			Date:   req.EffectiveDate.Value,
		}

		reject := func(msgs ...string) {
			out.Messages = msgs
			res.Errors = append(res.Errors, model.ErroringDraw{DrawID: out.DrawID, ErrorMessage: msgs})
			res.Outcomes = append(res.Outcomes, out)
		}

		if msgs := validator.Validate(req); len(msgs) > 0 {
			reject(msgs...)
			continue
		}

		// Under LenientMissing an absent itemId or amount reaches this point.
		idx := -1
		if req.ItemID.OK() {
			idx = working.ItemIndex(out.ItemID)
		}
		if idx < 0 {
			reject(NotFoundMessage(out.ItemID))
			continue
		}

		item := &working.BudgetItems[idx]
		if !req.Amount.OK() || item.Drawable() < out.Amount {
			reject(OverdraftMessage(item.ItemID))
			continue
		}

		item.FundedToDate += out.Amount
		working.BalanceRemaining -= out.Amount

		out.Accepted = true
		res.Successes = append(res.Successes, model.ProcessedDraw{DrawID: out.DrawID, Order: order})
		res.Outcomes = append(res.Outcomes, out)
	}

	res.Budget = working
	return res
}
