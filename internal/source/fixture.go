package source

import (
	"context"
	_ "embed"

	"github.com/theirongolddev/drawdown/internal/model"
)

var (
	//go:embed fixture/budget.json
	fixtureBudget []byte
	//go:embed fixture/draws.json
	fixtureDraws []byte
)

// Fixture serves the built-in demo budget and draw requests.
type Fixture struct{}

// GetBudget returns the demo budget.
func (Fixture) GetBudget(_ context.Context) (*model.Budget, error) {
	return DecodeBudget(fixtureBudget)
}

// GetDrawRequests returns the demo draw requests, malformed entries included.
func (Fixture) GetDrawRequests(_ context.Context) ([]model.DrawRequest, error) {
	return DecodeDrawRequests(fixtureDraws)
}

// FixtureBudgetJSON returns the raw demo budget payload.
func FixtureBudgetJSON() []byte { return append([]byte(nil), fixtureBudget...) }

// FixtureDrawsJSON returns the raw demo draw request payload.
func FixtureDrawsJSON() []byte { return append([]byte(nil), fixtureDraws...) }
