// Package pipeline implements draw request validation, ordering and allocation.
package pipeline

import (
	"regexp"
	"strconv"
	"time"

	"github.com/theirongolddev/drawdown/internal/model"
)

// Field names as they appear in draw request payloads.
const (
	FieldDrawID        = "drawId"
	FieldItemID        = "itemId"
	FieldAmount        = "amount"
	FieldEffectiveDate = "effectiveDate"
)

// Validation messages. Each ends with a period.
const (
	MsgDrawIDNotNumber   = "drawId is invalid. Not a number."
	MsgItemIDNotNumber   = "itemId is invalid. Not a number."
	MsgItemIDNotFound    = "No budget item matching request itemId found."
	MsgAmountNotNumber   = "amount is invalid. Not a number."
	MsgAmountNotPositive = "amount is invalid. Must be a positive value."
	MsgDateInvalid       = "effectiveDate is invalid. Must be a string matching MM/DD/YYYY or MM/D/YYYY."
)

var effectiveDateRe = regexp.MustCompile(`^(0?[1-9]|1[012])/(0?[1-9]|[12][0-9]|3[01])/(\d{4})$`)

// Check is the tagged outcome of a single field check.
type Check struct {
	Field   string
	OK      bool
	Message string
}

func pass(field string) Check { return Check{Field: field, OK: true} }

func fail(field, msg string) Check { return Check{Field: field, Message: msg} }

// Policy controls how absent fields are treated.
type Policy struct {
	// LenientMissing skips checks for absent keys instead of reporting them.
	LenientMissing bool
}

// MissingMessage is reported for an absent field under the default policy.
func MissingMessage(field string) string {
	return field + " is missing."
}

// CheckDrawID requires a number. Fractional IDs are accepted as-is.
func CheckDrawID(f model.Field[float64]) Check {
	if !f.OK() {
		return fail(FieldDrawID, MsgDrawIDNotNumber)
	}
	return pass(FieldDrawID)
}

// CheckItemID requires a number that names an item in budget.
func CheckItemID(f model.Field[float64], budget model.Budget) Check {
	if !f.OK() {
		return fail(FieldItemID, MsgItemIDNotNumber)
	}
	if !model.IsWhole(f.Value) || !budget.HasItem(int64(f.Value)) {
		return fail(FieldItemID, MsgItemIDNotFound)
	}
	return pass(FieldItemID)
}

// CheckAmount requires a strictly positive number.
func CheckAmount(f model.Field[float64]) Check {
	if !f.OK() {
		return fail(FieldAmount, MsgAmountNotNumber)
	}
	if !(f.Value > 0) {
		return fail(FieldAmount, MsgAmountNotPositive)
	}
	return pass(FieldAmount)
}

// CheckEffectiveDate requires a M/D/YYYY string. Day values are not checked
// against the month length.
func CheckEffectiveDate(f model.Field[string]) Check {
	if !f.OK() || !effectiveDateRe.MatchString(f.Value) {
		return fail(FieldEffectiveDate, MsgDateInvalid)
	}
	return pass(FieldEffectiveDate)
}

// ParseEffectiveDate converts a M/D/YYYY string into a calendar date (UTC midnight).
// Days past the end of the month roll over into the next month.
func ParseEffectiveDate(s string) (time.Time, bool) {
	m := effectiveDateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// Validator checks draw requests against a budget snapshot.
type Validator struct {
	Budget model.Budget
	Policy Policy
}

// Checks runs every field check and returns all results in field order.
// Absent fields produce a missing-field failure, or nothing under LenientMissing.
func (v Validator) Checks(r model.DrawRequest) []Check {
	checks := make([]Check, 0, 4)

	add := func(field string, state model.FieldState, run func() Check) {
		if state == model.FieldMissing {
			if !v.Policy.LenientMissing {
				checks = append(checks, fail(field, MissingMessage(field)))
			}
			return
		}
		checks = append(checks, run())
	}

	add(FieldDrawID, r.DrawID.State, func() Check { return CheckDrawID(r.DrawID) })
	add(FieldItemID, r.ItemID.State, func() Check { return CheckItemID(r.ItemID, v.Budget) })
	add(FieldAmount, r.Amount.State, func() Check { return CheckAmount(r.Amount) })
	add(FieldEffectiveDate, r.EffectiveDate.State, func() Check { return CheckEffectiveDate(r.EffectiveDate) })

	return checks
}

// Validate returns the failure messages for r; an empty slice means valid.
func (v Validator) Validate(r model.DrawRequest) []string {
	var msgs []string
	for _, c := range v.Checks(r) {
		if !c.OK {
			msgs = append(msgs, c.Message)
		}
	}
	return msgs
}
