package model

// ProcessedDraw is an accepted draw request and the position at which it was applied.
// DrawID is nil only when lenient validation let a request without one through.
type ProcessedDraw struct {
	DrawID *float64 `json:"drawId"`
	Order  int      `json:"order"`
}

// ErroringDraw is a rejected draw request with every reason it was rejected.
// DrawID is nil when the request carried no numeric drawId.
type ErroringDraw struct {
	DrawID       *float64 `json:"drawId"`
	ErrorMessage []string `json:"errorMessage"`
}

// Outcome is one request's fate in processed order, used by per-draw listings.
type Outcome struct {
	Order    int      `json:"order"`
	DrawID   *float64 `json:"drawId"`
	ItemID   int64    `json:"itemId"`
	Amount   float64  `json:"amount"`
	Date     string   `json:"effectiveDate"`
	Accepted bool     `json:"accepted"`
	Messages []string `json:"messages,omitempty"`
}
