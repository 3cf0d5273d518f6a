package source

import "encoding/json"

// RawBudget is the wire shape of a budget payload. Pointers distinguish
// absent keys from zero values.
type RawBudget struct {
	Amount           *float64        `json:"amount"`
	BalanceRemaining *float64        `json:"balanceRemaining"`
	BudgetItems      []RawBudgetItem `json:"budgetItems"`
}

// RawBudgetItem is the wire shape of one budget item.
type RawBudgetItem struct {
	ItemID         *int64   `json:"itemId"`
	FundedToDate   *float64 `json:"fundedToDate"`
	OriginalAmount *float64 `json:"originalAmount"`
}

// RawDrawRequest keeps each draw request key as raw JSON so field types can be
// checked individually instead of failing the whole object.
type RawDrawRequest map[string]json.RawMessage
