// Package state holds the current budget snapshot and the results of the last
// allocation pass, and notifies subscribers when either changes.
package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/drawdown/internal/model"
	"github.com/theirongolddev/drawdown/internal/pipeline"
)

// ErrNoBudget is returned by Preload when the fetcher has no budget to offer.
var ErrNoBudget = errors.New("state: no budget available")

// Fetcher supplies a budget and a batch of draw requests. A nil budget or a
// nil batch means the source had no content.
type Fetcher interface {
	GetBudget(ctx context.Context) (*model.Budget, error)
	GetDrawRequests(ctx context.Context) ([]model.DrawRequest, error)
}

// Snapshot is a consistent copy of the store's published state.
type Snapshot struct {
	RunID     string                `json:"run_id,omitempty"`
	Budget    model.Budget          `json:"budget"`
	Successes []model.ProcessedDraw `json:"successes"`
	Errors    []model.ErroringDraw  `json:"errors"`
	Outcomes  []model.Outcome       `json:"outcomes,omitempty"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Budget = s.Budget.Clone()
	out.Successes = slices.Clone(s.Successes)
	out.Errors = make([]model.ErroringDraw, len(s.Errors))
	for i, e := range s.Errors {
		out.Errors[i] = model.ErroringDraw{DrawID: e.DrawID, ErrorMessage: slices.Clone(e.ErrorMessage)}
	}
	out.Outcomes = make([]model.Outcome, len(s.Outcomes))
	for i, o := range s.Outcomes {
		o.Messages = slices.Clone(o.Messages)
		out.Outcomes[i] = o
	}
	return out
}

// Option configures a Store.
type Option func(*Store)

// WithPolicy sets the validation policy used by allocation passes.
func WithPolicy(p pipeline.Policy) Option {
	return func(s *Store) { s.policy = p }
}

// WithLogger sets the store's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store owns the budget snapshot and result lists. Published state is only
// ever replaced whole, and allocation passes run one at a time.
type Store struct {
	policy pipeline.Policy
	log    zerolog.Logger

	pass sync.Mutex

	mu   sync.RWMutex
	snap Snapshot

	nextSubID int
	subs      map[int]chan Snapshot
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		log:  zerolog.Nop(),
		subs: make(map[int]chan Snapshot),
		snap: Snapshot{
			Budget:    model.Budget{BudgetItems: []model.BudgetItem{}},
			Successes: []model.ProcessedDraw{},
			Errors:    []model.ErroringDraw{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Budget returns a copy of the current budget.
func (s *Store) Budget() model.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Budget.Clone()
}

// SetBudget replaces the budget.
func (s *Store) SetBudget(b model.Budget) {
	s.update(func(snap *Snapshot) { snap.Budget = b.Clone() })
}

// SetSuccesses replaces the list of accepted draws.
func (s *Store) SetSuccesses(ds []model.ProcessedDraw) {
	s.update(func(snap *Snapshot) { snap.Successes = nonNil(slices.Clone(ds)) })
}

// SetErrors replaces the list of rejected draws.
func (s *Store) SetErrors(es []model.ErroringDraw) {
	s.update(func(snap *Snapshot) {
		snap.Errors = make([]model.ErroringDraw, len(es))
		for i, e := range es {
			snap.Errors[i] = model.ErroringDraw{DrawID: e.DrawID, ErrorMessage: slices.Clone(e.ErrorMessage)}
		}
	})
}

// Process runs an allocation pass over the current budget and publishes the
// new budget and both result lists together.
func (s *Store) Process(requests []model.DrawRequest) pipeline.Result {
	s.pass.Lock()
	defer s.pass.Unlock()

	return s.process(s.Budget(), requests)
}

// Preload fetches a budget and a batch of draw requests, then processes the
// batch against that budget. Nothing is published if either fetch fails.
func (s *Store) Preload(ctx context.Context, f Fetcher) (pipeline.Result, error) {
	s.pass.Lock()
	defer s.pass.Unlock()

	start := time.Now()
	budget, err := f.GetBudget(ctx)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("fetching budget: %w", err)
	}
	if budget == nil {
		return pipeline.Result{}, ErrNoBudget
	}

	requests, err := f.GetDrawRequests(ctx)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("fetching draw requests: %w", err)
	}

	s.log.Debug().
		Int("items", len(budget.BudgetItems)).
		Int("requests", len(requests)).
		Dur("fetch", time.Since(start)).
		Msg("preload fetched")

	return s.process(*budget, requests), nil
}

func (s *Store) process(budget model.Budget, requests []model.DrawRequest) pipeline.Result {
	res := pipeline.Allocate(budget, requests, s.policy)
	runID := uuid.NewString()

	next := Snapshot{
		RunID:     runID,
		Budget:    res.Budget,
		Successes: res.Successes,
		Errors:    res.Errors,
		Outcomes:  res.Outcomes,
	}.clone()
	s.update(func(snap *Snapshot) { *snap = next })

	s.log.Info().
		Str("run", runID).
		Int("accepted", len(res.Successes)).
		Int("rejected", len(res.Errors)).
		Float64("balance_remaining", res.Budget.BalanceRemaining).
		Msg("allocation pass complete")

	return res
}

// update applies fn under the write lock and notifies subscribers.
func (s *Store) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.snap.UpdatedAt = time.Now()
	snap := s.snap.clone()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	s.mu.Unlock()
}

// Subscribe returns a channel receiving every published snapshot and a func
// that unsubscribes and closes it. Sends never block: a full channel drops
// the update.
func (s *Store) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// SubscriberCount returns the number of active subscribers.
func (s *Store) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
