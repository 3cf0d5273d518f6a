package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/theirongolddev/drawdown/internal/model"
	"github.com/theirongolddev/drawdown/internal/pipeline"
)

// writeFile creates a temp file with the given name and content.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeDrawRequest_FieldStates(t *testing.T) {
	r, err := DecodeDrawRequest([]byte(`{"drawId":8,"itemId":"nope","amount":null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !r.DrawID.OK() || r.DrawID.Value != 8 {
		t.Errorf("DrawID = %+v, want ok 8", r.DrawID)
	}
	if r.ItemID.State != model.FieldWrongType || r.ItemID.Raw != `"nope"` {
		t.Errorf("ItemID = %+v, want wrong type \"nope\"", r.ItemID)
	}
	if r.Amount.State != model.FieldWrongType {
		t.Errorf("Amount state = %v, want wrong type (null)", r.Amount.State)
	}
	if r.EffectiveDate.State != model.FieldMissing {
		t.Errorf("EffectiveDate state = %v, want missing", r.EffectiveDate.State)
	}
}

func TestDecodeDrawRequests_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `not json`},
		{"object instead of array", `{"drawId":1}`},
		{"scalar element", `[{"drawId":1}, 5]`},
		{"null element", `[null]`},
		{"truncated", `[{"drawId":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDrawRequests([]byte(tt.input))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestDecodeDrawRequests_Empty(t *testing.T) {
	reqs, err := DecodeDrawRequests([]byte(`[]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 0 {
		t.Errorf("len = %d, want 0", len(reqs))
	}
}

func TestDecodeBudget(t *testing.T) {
	b, err := DecodeBudget([]byte(`{"amount":10,"balanceRemaining":4,"budgetItems":[{"itemId":7,"fundedToDate":6,"originalAmount":10}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.BalanceRemaining != 4 || len(b.BudgetItems) != 1 || b.BudgetItems[0].Drawable() != 4 {
		t.Errorf("budget = %+v", b)
	}

	bad := []string{
		`{"balanceRemaining":4,"budgetItems":[]}`,
		`{"amount":10,"balanceRemaining":4}`,
		`{"amount":10,"balanceRemaining":4,"budgetItems":[{"itemId":1,"fundedToDate":0}]}`,
		`{"amount":10,"balanceRemaining":4,"budgetItems":[{"itemId":1,"fundedToDate":0,"originalAmount":1},{"itemId":1,"fundedToDate":0,"originalAmount":1}]}`,
		`{"amount":"10","balanceRemaining":4,"budgetItems":[]}`,
	}
	for _, in := range bad {
		if _, err := DecodeBudget([]byte(in)); !errors.Is(err, ErrMalformed) {
			t.Errorf("DecodeBudget(%s) err = %v, want ErrMalformed", in, err)
		}
	}
}

func TestEncodeDrawRequest_RoundTripKeepsShape(t *testing.T) {
	in := `{"amount":"100","drawId":10,"effectiveDate":"10/31/2014"}`
	r, err := DecodeDrawRequest([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	out, err := EncodeDrawRequest(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != in {
		t.Errorf("EncodeDrawRequest = %s, want %s", out, in)
	}
}

func TestFixture_ProcessesLikeDemo(t *testing.T) {
	ctx := context.Background()
	b, err := Fixture{}.GetBudget(ctx)
	if err != nil {
		t.Fatal(err)
	}
	reqs, err := Fixture{}.GetDrawRequests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 13 {
		t.Fatalf("len(reqs) = %d, want 13", len(reqs))
	}

	res := pipeline.Allocate(*b, reqs, pipeline.Policy{})
	want := []struct {
		id    float64
		order int
	}{{3, 2}, {6, 4}, {5, 5}, {2, 10}}
	if len(res.Successes) != len(want) {
		t.Fatalf("successes = %+v, want %+v", res.Successes, want)
	}
	for i, w := range want {
		got := res.Successes[i]
		if got.DrawID == nil || *got.DrawID != w.id || got.Order != w.order {
			t.Errorf("successes[%d] = %s/%d, want %v/%d", i, fmtID(got.DrawID), got.Order, w.id, w.order)
		}
	}
	if res.Budget.BalanceRemaining != 6000 {
		t.Errorf("BalanceRemaining = %.0f, want 6000", res.Budget.BalanceRemaining)
	}
}

func TestFile_YAMLAndJSON(t *testing.T) {
	budgetPath := writeFile(t, "budget.yaml", `
amount: 500
balanceRemaining: 500
budgetItems:
  - itemId: 1
    fundedToDate: 0
    originalAmount: 500
`)
	drawsPath := writeFile(t, "draws.json", `[{"drawId":1,"itemId":1,"amount":200,"effectiveDate":"1/2/2020"}]`)

	f := File{BudgetPath: budgetPath, DrawsPath: drawsPath}
	b, err := f.GetBudget(context.Background())
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if b.Amount != 500 || len(b.BudgetItems) != 1 {
		t.Errorf("budget = %+v", b)
	}

	reqs, err := f.GetDrawRequests(context.Background())
	if err != nil {
		t.Fatalf("GetDrawRequests: %v", err)
	}
	if len(reqs) != 1 || reqs[0].EffectiveDate.Value != "1/2/2020" {
		t.Errorf("reqs = %+v", reqs)
	}
}

func TestFile_YAMLDrawsWithMalformedFields(t *testing.T) {
	path := writeFile(t, "draws.yml", `
- drawId: 8
  itemId: nope
  amount: 750
  effectiveDate: 11/15/2015
`)
	reqs, err := File{DrawsPath: path}.GetDrawRequests(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if reqs[0].ItemID.State != model.FieldWrongType {
		t.Errorf("ItemID state = %v, want wrong type", reqs[0].ItemID.State)
	}
	if !reqs[0].EffectiveDate.OK() {
		t.Errorf("EffectiveDate = %+v, want ok string", reqs[0].EffectiveDate)
	}
}

func TestFile_MissingPath(t *testing.T) {
	if _, err := (File{}).GetBudget(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

// FuzzDecodeDrawRequests checks the decoder never panics on untrusted input.
func FuzzDecodeDrawRequests(f *testing.F) {
	f.Add([]byte(`[{"drawId":1,"itemId":2,"amount":750,"effectiveDate":"11/15/2015"}]`))
	f.Add([]byte(`[{"itemId":"nope"}]`))
	f.Add([]byte(`[{"effectiveDate":0.0001}]`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`[1,2,3]`))
	f.Add([]byte(``))

	f.Fuzz(func(t *testing.T, data []byte) {
		reqs, err := DecodeDrawRequests(data)
		if err != nil && !errors.Is(err, ErrMalformed) {
			t.Errorf("unexpected error type %v", err)
		}
		v := pipeline.Validator{}
		for _, r := range reqs {
			_ = v.Validate(r)
		}
	})
}

func fmtID(id *float64) string {
	if id == nil {
		return "nil"
	}
	return strconv.FormatFloat(*id, 'f', -1, 64)
}

func TestFractionalDrawIDIsAccepted(t *testing.T) {
	reqs, err := DecodeDrawRequests([]byte(`[{"drawId":2.5,"itemId":1,"amount":10,"effectiveDate":"1/1/2020"}]`))
	if err != nil {
		t.Fatal(err)
	}
	budget := model.Budget{
		Amount:           100,
		BalanceRemaining: 100,
		BudgetItems:      []model.BudgetItem{{ItemID: 1, OriginalAmount: 100}},
	}

	res := pipeline.Allocate(budget, reqs, pipeline.Policy{})
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %+v, want none", res.Errors)
	}
	if len(res.Successes) != 1 || fmtID(res.Successes[0].DrawID) != "2.5" {
		t.Fatalf("successes = %+v, want draw 2.5", res.Successes)
	}
	if got := res.Budget.BudgetItems[0].FundedToDate; got != 10 {
		t.Errorf("FundedToDate = %v, want 10", got)
	}
}
