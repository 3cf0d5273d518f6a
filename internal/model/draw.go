package model

import "math"

// FieldState records how a field of an untrusted request was decoded.
type FieldState uint8

const (
	// FieldOK means the field was present with the expected JSON type.
	FieldOK FieldState = iota
	// FieldMissing means the key was absent from the request.
	FieldMissing
	// FieldWrongType means the key was present but held another JSON type (or null).
	FieldWrongType
)

func (s FieldState) String() string {
	switch s {
	case FieldOK:
		return "ok"
	case FieldMissing:
		return "missing"
	case FieldWrongType:
		return "wrong type"
	default:
		return "unknown"
	}
}

// Field is one decoded request field. Value is only meaningful when State is FieldOK.
// Raw keeps the original JSON text whenever the key was present.
type Field[T any] struct {
	Value T
	State FieldState
	Raw   string
}

// Valid returns a present, well-typed field.
func Valid[T any](v T) Field[T] {
	return Field[T]{Value: v, State: FieldOK}
}

// Missing returns an absent field.
func Missing[T any]() Field[T] {
	return Field[T]{State: FieldMissing}
}

// WrongType returns a present field whose JSON type did not match.
func WrongType[T any](raw string) Field[T] {
	return Field[T]{State: FieldWrongType, Raw: raw}
}

// OK reports whether the field was present and well-typed.
func (f Field[T]) OK() bool { return f.State == FieldOK }

// DrawRequest is a request to disburse an amount against a budget item.
// Built from untrusted input: any field may be missing or malformed.
type DrawRequest struct {
	DrawID        Field[float64]
	ItemID        Field[float64]
	Amount        Field[float64]
	EffectiveDate Field[string]
}

// NewDrawRequest builds a fully well-formed request. Mostly useful in tests and fixtures.
func NewDrawRequest(drawID, itemID int64, amount float64, effectiveDate string) DrawRequest {
	return DrawRequest{
		DrawID:        Valid(float64(drawID)),
		ItemID:        Valid(float64(itemID)),
		Amount:        Valid(amount),
		EffectiveDate: Valid(effectiveDate),
	}
}

// ID returns the draw ID, or nil when it is missing or not a number.
func (r DrawRequest) ID() *float64 {
	if !r.DrawID.OK() {
		return nil
	}
	return Ptr(r.DrawID.Value)
}

// Item returns the item ID, or 0 when it is missing or not a whole number.
func (r DrawRequest) Item() int64 {
	return wholeOrZero(r.ItemID)
}

func wholeOrZero(f Field[float64]) int64 {
	if !f.OK() || !IsWhole(f.Value) {
		return 0
	}
	return int64(f.Value)
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T { return &v }

// IsWhole reports whether v is a finite integral value that fits in an int64.
func IsWhole(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if v != math.Trunc(v) {
		return false
	}
	return v >= math.MinInt64 && v < math.MaxInt64
}
