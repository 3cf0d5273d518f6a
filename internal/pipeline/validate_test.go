package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/drawdown/internal/model"
)

func testBudget() model.Budget {
	return model.Budget{
		Amount:           126000,
		BalanceRemaining: 108500,
		BudgetItems: []model.BudgetItem{
			{ItemID: 1, FundedToDate: 2500, OriginalAmount: 10000},
			{ItemID: 2, FundedToDate: 15000, OriginalAmount: 16000},
			{ItemID: 3, FundedToDate: 0, OriginalAmount: 100000},
		},
	}
}

func TestCheckEffectiveDate(t *testing.T) {
	tests := []struct {
		name  string
		field model.Field[string]
		ok    bool
	}{
		{"two digit month and day", model.Valid("11/15/2015"), true},
		{"single digit day", model.Valid("10/5/2015"), true},
		{"single digit month", model.Valid("1/05/2015"), true},
		{"lenient day of month", model.Valid("2/31/2015"), true},
		{"month 13", model.Valid("13/01/2015"), false},
		{"day 32", model.Valid("12/32/2015"), false},
		{"day zero", model.Valid("12/0/2015"), false},
		{"two digit year", model.Valid("12/1/15"), false},
		{"prose", model.Valid("A long long time ago..."), false},
		{"trailing text", model.Valid("11/15/2015 noon"), false},
		{"empty", model.Valid(""), false},
		{"number", model.WrongType[string]("0.00015513897866843"), false},
		{"null", model.WrongType[string]("null"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CheckEffectiveDate(tt.field)
			assert.Equal(t, tt.ok, c.OK)
			assert.Equal(t, FieldEffectiveDate, c.Field)
			if !tt.ok {
				assert.Equal(t, MsgDateInvalid, c.Message)
			}
		})
	}
}

func TestCheckAmount(t *testing.T) {
	assert.True(t, CheckAmount(model.Valid(0.01)).OK)
	assert.Equal(t, MsgAmountNotPositive, CheckAmount(model.Valid(0.0)).Message)
	assert.Equal(t, MsgAmountNotPositive, CheckAmount(model.Valid(-100000.0)).Message)
	assert.Equal(t, MsgAmountNotNumber, CheckAmount(model.WrongType[float64](`"100"`)).Message)
}

func TestCheckItemID(t *testing.T) {
	b := testBudget()
	assert.True(t, CheckItemID(model.Valid(2.0), b).OK)
	assert.Equal(t, MsgItemIDNotFound, CheckItemID(model.Valid(4.0), b).Message)
	assert.Equal(t, MsgItemIDNotFound, CheckItemID(model.Valid(1.5), b).Message)
	assert.Equal(t, MsgItemIDNotNumber, CheckItemID(model.WrongType[float64](`"nope"`), b).Message)
}

func TestCheckDrawID(t *testing.T) {
	assert.True(t, CheckDrawID(model.Valid(7.0)).OK)
	assert.True(t, CheckDrawID(model.Valid(2.5)).OK, "fractional IDs are numbers")
	assert.True(t, CheckDrawID(model.Valid(-1.0)).OK)
	assert.Equal(t, MsgDrawIDNotNumber, CheckDrawID(model.WrongType[float64]("true")).Message)
}

func TestValidate_AccumulatesAllFailures(t *testing.T) {
	v := Validator{Budget: testBudget()}
	req := model.DrawRequest{
		DrawID:        model.WrongType[float64](`"x"`),
		ItemID:        model.Valid(99.0),
		Amount:        model.Valid(-1.0),
		EffectiveDate: model.Valid("someday"),
	}

	assert.Equal(t, []string{
		MsgDrawIDNotNumber,
		MsgItemIDNotFound,
		MsgAmountNotPositive,
		MsgDateInvalid,
	}, v.Validate(req))
}

func TestValidate_MissingFields(t *testing.T) {
	req := model.DrawRequest{
		DrawID:        model.Valid(9.0),
		ItemID:        model.Valid(1.0),
		Amount:        model.Valid(10.0),
		EffectiveDate: model.Missing[string](),
	}

	strict := Validator{Budget: testBudget()}
	assert.Equal(t, []string{"effectiveDate is missing."}, strict.Validate(req))

	lenient := Validator{Budget: testBudget(), Policy: Policy{LenientMissing: true}}
	assert.Empty(t, lenient.Validate(req))
}

func TestValidate_ValidRequest(t *testing.T) {
	v := Validator{Budget: testBudget()}
	assert.Empty(t, v.Validate(model.NewDrawRequest(1, 2, 750, "11/15/2015")))

	checks := v.Checks(model.NewDrawRequest(1, 2, 750, "11/15/2015"))
	assert.Len(t, checks, 4)
	for _, c := range checks {
		assert.True(t, c.OK, c.Field)
	}
}

func TestNotANumberMessagesShareOneForm(t *testing.T) {
	assert.Equal(t, "drawId is invalid. Not a number.", MsgDrawIDNotNumber)
	assert.Equal(t, "itemId is invalid. Not a number.", MsgItemIDNotNumber)
	assert.Equal(t, "amount is invalid. Not a number.", MsgAmountNotNumber)
}
