// Package source decodes budget and draw request payloads and provides the
// built-in and file-backed data sources.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/theirongolddev/drawdown/internal/model"
)

// ErrMalformed wraps payloads whose overall structure cannot be decoded.
var ErrMalformed = errors.New("source: malformed payload")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// DecodeBudget decodes a budget payload. Every key is required and item IDs
// must be unique.
func DecodeBudget(data []byte) (*model.Budget, error) {
	var raw RawBudget
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, malformed("budget: %v", err)
	}
	if raw.Amount == nil {
		return nil, malformed("budget: missing amount")
	}
	if raw.BalanceRemaining == nil {
		return nil, malformed("budget: missing balanceRemaining")
	}
	if raw.BudgetItems == nil {
		return nil, malformed("budget: missing budgetItems")
	}

	b := &model.Budget{
		Amount:           *raw.Amount,
		BalanceRemaining: *raw.BalanceRemaining,
		BudgetItems:      make([]model.BudgetItem, 0, len(raw.BudgetItems)),
	}

	seen := make(map[int64]bool, len(raw.BudgetItems))
	for i, ri := range raw.BudgetItems {
		if ri.ItemID == nil || ri.FundedToDate == nil || ri.OriginalAmount == nil {
			return nil, malformed("budget item %d: missing itemId, fundedToDate or originalAmount", i)
		}
		if seen[*ri.ItemID] {
			return nil, malformed("budget item %d: duplicate itemId %d", i, *ri.ItemID)
		}
		seen[*ri.ItemID] = true
		b.BudgetItems = append(b.BudgetItems, model.BudgetItem{
			ItemID:         *ri.ItemID,
			FundedToDate:   *ri.FundedToDate,
			OriginalAmount: *ri.OriginalAmount,
		})
	}
	return b, nil
}

// DecodeDrawRequests decodes a JSON array of draw request objects. Field-level
// problems are recorded on each request; only a non-array payload or a
// non-object element is an error.
func DecodeDrawRequests(data []byte) ([]model.DrawRequest, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, malformed("draw requests: %v", err)
	}

	reqs := make([]model.DrawRequest, 0, len(elems))
	for i, e := range elems {
		r, err := DecodeDrawRequest(e)
		if err != nil {
			return nil, fmt.Errorf("draw request %d: %w", i, err)
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

// DecodeDrawRequest decodes a single draw request object.
func DecodeDrawRequest(data []byte) (model.DrawRequest, error) {
	var raw RawDrawRequest
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return model.DrawRequest{}, malformed("draw request is not an object")
	}
	return model.DrawRequest{
		DrawID:        numberField(raw, "drawId"),
		ItemID:        numberField(raw, "itemId"),
		Amount:        numberField(raw, "amount"),
		EffectiveDate: stringField(raw, "effectiveDate"),
	}, nil
}

// EncodeDrawRequest renders r back to its JSON object form, keeping wrongly
// typed fields as they arrived and omitting missing ones.
func EncodeDrawRequest(r model.DrawRequest) ([]byte, error) {
	obj := make(map[string]json.RawMessage, 4)
	if err := putNumber(obj, "drawId", r.DrawID); err != nil {
		return nil, err
	}
	if err := putNumber(obj, "itemId", r.ItemID); err != nil {
		return nil, err
	}
	if err := putNumber(obj, "amount", r.Amount); err != nil {
		return nil, err
	}
	switch r.EffectiveDate.State {
	case model.FieldOK:
		b, err := json.Marshal(r.EffectiveDate.Value)
		if err != nil {
			return nil, err
		}
		obj["effectiveDate"] = b
	case model.FieldWrongType:
		obj["effectiveDate"] = json.RawMessage(r.EffectiveDate.Raw)
	}
	return json.Marshal(obj)
}

func putNumber(obj map[string]json.RawMessage, key string, f model.Field[float64]) error {
	switch f.State {
	case model.FieldOK:
		b, err := json.Marshal(f.Value)
		if err != nil {
			return err
		}
		obj[key] = b
	case model.FieldWrongType:
		obj[key] = json.RawMessage(f.Raw)
	}
	return nil
}

func numberField(raw RawDrawRequest, key string) model.Field[float64] {
	v, ok := raw[key]
	if !ok {
		return model.Missing[float64]()
	}
	var f float64
	if isJSONNull(v) || json.Unmarshal(v, &f) != nil {
		return model.WrongType[float64](compact(v))
	}
	field := model.Valid(f)
	field.Raw = compact(v)
	return field
}

func stringField(raw RawDrawRequest, key string) model.Field[string] {
	v, ok := raw[key]
	if !ok {
		return model.Missing[string]()
	}
	var s string
	if isJSONNull(v) || json.Unmarshal(v, &s) != nil {
		return model.WrongType[string](compact(v))
	}
	field := model.Valid(s)
	field.Raw = compact(v)
	return field
}

func isJSONNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

func compact(b []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return string(b)
	}
	return buf.String()
}
