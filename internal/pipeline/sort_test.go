package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/drawdown/internal/model"
)

func drawIDs(reqs []model.DrawRequest) []float64 {
	ids := make([]float64, len(reqs))
	for i, r := range reqs {
		ids[i] = r.DrawID.Value
	}
	return ids
}

func TestParseEffectiveDate(t *testing.T) {
	d, ok := ParseEffectiveDate("10/5/2015")
	require.True(t, ok)
	assert.Equal(t, time.Date(2015, 10, 5, 0, 0, 0, 0, time.UTC), d)

	d, ok = ParseEffectiveDate("2/31/2015")
	require.True(t, ok)
	assert.Equal(t, time.Date(2015, 3, 3, 0, 0, 0, 0, time.UTC), d)

	_, ok = ParseEffectiveDate("2015-10-05")
	assert.False(t, ok)
}

func TestSortByEffectiveDate_CalendarOrder(t *testing.T) {
	// String order would put 10/31 before 10/5.
	in := []model.DrawRequest{
		model.NewDrawRequest(1, 1, 1, "10/31/2015"),
		model.NewDrawRequest(2, 1, 1, "10/5/2015"),
		model.NewDrawRequest(3, 1, 1, "1/1/2016"),
		model.NewDrawRequest(4, 1, 1, "12/1/2014"),
	}

	assert.Equal(t, []float64{4, 2, 1, 3}, drawIDs(SortByEffectiveDate(in)))
}

func TestSortByEffectiveDate_InvalidDatesLastAndStable(t *testing.T) {
	noDate := model.NewDrawRequest(1, 1, 1, "")
	noDate.EffectiveDate = model.Missing[string]()
	numDate := model.NewDrawRequest(2, 1, 1, "")
	numDate.EffectiveDate = model.WrongType[string]("0.0001")

	in := []model.DrawRequest{
		noDate,
		model.NewDrawRequest(3, 1, 1, "11/15/2015"),
		numDate,
		model.NewDrawRequest(4, 1, 1, "A long long time ago..."),
		model.NewDrawRequest(5, 1, 1, "11/15/2015"),
		model.NewDrawRequest(6, 1, 1, "10/1/2015"),
	}

	assert.Equal(t, []float64{6, 3, 5, 1, 2, 4}, drawIDs(SortByEffectiveDate(in)))
}

func TestSortByEffectiveDate_DoesNotModifyInput(t *testing.T) {
	in := []model.DrawRequest{
		model.NewDrawRequest(1, 1, 1, "12/1/2015"),
		model.NewDrawRequest(2, 1, 1, "1/1/2015"),
	}
	_ = SortByEffectiveDate(in)
	assert.Equal(t, []float64{1, 2}, drawIDs(in))
}
