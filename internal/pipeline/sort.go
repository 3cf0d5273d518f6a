package pipeline

import (
	"slices"
	"time"

	"github.com/theirongolddev/drawdown/internal/model"
)

// effectiveTime returns the parsed date of r and whether it parsed.
func effectiveTime(r model.DrawRequest) (time.Time, bool) {
	if !r.EffectiveDate.OK() {
		return time.Time{}, false
	}
	return ParseEffectiveDate(r.EffectiveDate.Value)
}

// SortByEffectiveDate returns a copy of requests ordered by calendar date.
// Requests without a parseable date sort after every dated request. Equal keys
// keep their input order.
func SortByEffectiveDate(requests []model.DrawRequest) []model.DrawRequest {
	sorted := slices.Clone(requests)
	slices.SortStableFunc(sorted, func(a, b model.DrawRequest) int {
		ta, okA := effectiveTime(a)
		tb, okB := effectiveTime(b)
		switch {
		case okA && okB:
			return ta.Compare(tb)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
	return sorted
}
