// Package model defines the budget and draw request types shared across drawdown.
package model

// BudgetItem is a sub-allocation of a budget with its own funding state.
type BudgetItem struct {
	ItemID         int64   `json:"itemId"`
	FundedToDate   float64 `json:"fundedToDate"`
	OriginalAmount float64 `json:"originalAmount"`
}

// Drawable returns the amount still available for draws against this item.
func (i BudgetItem) Drawable() float64 {
	return i.OriginalAmount - i.FundedToDate
}

// FundedPercent returns FundedToDate as a 0-1 fraction of OriginalAmount.
func (i BudgetItem) FundedPercent() float64 {
	if i.OriginalAmount <= 0 {
		return 0
	}
	return i.FundedToDate / i.OriginalAmount
}

// Budget holds the authorized amount, remaining balance and per-item funding.
type Budget struct {
	Amount           float64      `json:"amount"`
	BalanceRemaining float64      `json:"balanceRemaining"`
	BudgetItems      []BudgetItem `json:"budgetItems"`
}

// Clone returns a deep copy so the caller can mutate items freely.
func (b Budget) Clone() Budget {
	out := b
	if b.BudgetItems != nil {
		out.BudgetItems = make([]BudgetItem, len(b.BudgetItems))
		copy(out.BudgetItems, b.BudgetItems)
	}
	return out
}

// ItemIndex returns the position of the item with the given ID, or -1.
func (b Budget) ItemIndex(itemID int64) int {
	for i, item := range b.BudgetItems {
		if item.ItemID == itemID {
			return i
		}
	}
	return -1
}

// HasItem reports whether the budget contains an item with the given ID.
func (b Budget) HasItem(itemID int64) bool {
	return b.ItemIndex(itemID) >= 0
}

// TotalDrawable sums Drawable across all items.
func (b Budget) TotalDrawable() float64 {
	var total float64
	for _, item := range b.BudgetItems {
		total += item.Drawable()
	}
	return total
}
