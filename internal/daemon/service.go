// Package daemon provides the long-running allocation service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/drawdown/internal/model"
	"github.com/theirongolddev/drawdown/internal/state"
)

// Config holds the serve loop settings. Zero values fall back to defaults in New.
type Config struct {
	Source       string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Summary is a compact allocation state for status/event payloads.
type Summary struct {
	At               time.Time `json:"at"`
	RunID            string    `json:"run_id,omitempty"`
	Items            int       `json:"items"`
	Accepted         int       `json:"accepted"`
	Rejected         int       `json:"rejected"`
	AcceptedAmount   float64   `json:"accepted_amount"`
	BudgetAmount     float64   `json:"budget_amount"`
	BalanceRemaining float64   `json:"balance_remaining"`
	Drawable         float64   `json:"drawable"`
}

// Delta captures summary changes between passes.
type Delta struct {
	Accepted         int     `json:"accepted"`
	Rejected         int     `json:"rejected"`
	AcceptedAmount   float64 `json:"accepted_amount"`
	BalanceRemaining float64 `json:"balance_remaining"`
}

func (d Delta) isZero() bool {
	return d.Accepted == 0 &&
		d.Rejected == 0 &&
		d.AcceptedAmount == 0 &&
		d.BalanceRemaining == 0
}

// Event is emitted whenever the store publishes a changed snapshot.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Summary   Summary   `json:"summary"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Source          string    `json:"source"`
	Summary         Summary   `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service polls a fetcher into a state store and serves the results over HTTP.
type Service struct {
	cfg     Config
	store   *state.Store
	fetcher state.Fetcher
	log     zerolog.Logger
	metrics *metrics
	gather  prometheus.Gatherer
	events  *eventLog
	started time.Time

	mu      sync.RWMutex
	polls   int64
	polled  time.Time
	pollErr string
	summary *Summary
}

// New returns a new daemon service. Metrics are registered on reg; a nil reg
// gets a private registry.
func New(cfg Config, st *state.Store, f state.Fetcher, logger zerolog.Logger, reg *prometheus.Registry) (*Service, error) {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:     cfg,
		store:   st,
		fetcher: f,
		log:     logger,
		metrics: m,
		gather:  reg,
		events:  newEventLog(cfg.EventsBuffer),
		started: time.Now(),
	}, nil
}

// Handler returns the HTTP routes served by the daemon.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/budget", s.handleBudget).Methods(http.MethodGet)
	r.HandleFunc("/v1/draws", s.handleDraws).Methods(http.MethodGet)
	r.HandleFunc("/v1/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/v1/stream", s.handleStream).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

// Run serves HTTP and re-runs the allocation pass every interval until ctx
// is canceled.
func (s *Service) Run(ctx context.Context) error {
	snaps, unsubscribe := s.store.Subscribe(16)
	defer unsubscribe()
	go func() {
		for snap := range snaps {
			s.record(snap)
		}
	}()

	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Dur("interval", s.cfg.Interval).Msg("serving")

	// First pass runs immediately so /v1/status has data before the first tick.
	s.pollOnce(ctx)
	tick := time.NewTicker(s.cfg.Interval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			s.pollOnce(ctx)
		case err := <-serveErr:
			return fmt.Errorf("daemon http server: %w", err)
		case <-ctx.Done():
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdown)
		}
	}
}

// pollOnce runs one Preload and folds its outcome into status and metrics.
func (s *Service) pollOnce(ctx context.Context) {
	begin := time.Now()
	res, err := s.store.Preload(ctx, s.fetcher)
	elapsed := time.Since(begin)

	s.mu.Lock()
	s.polls++
	s.polled = begin.Add(elapsed)
	s.pollErr = ""
	if err != nil {
		s.pollErr = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.metrics.preloadFailures.Inc()
		s.log.Warn().Err(err).Msg("preload failed")
		return
	}

	s.metrics.passDuration.Observe(elapsed.Seconds())
	s.metrics.draws.WithLabelValues("accepted").Add(float64(len(res.Successes)))
	s.metrics.draws.WithLabelValues("rejected").Add(float64(len(res.Errors)))
	s.metrics.balance.Set(res.Budget.BalanceRemaining)
	s.log.Debug().
		Int("accepted", len(res.Successes)).
		Int("rejected", len(res.Errors)).
		Dur("took", elapsed).
		Msg("allocation pass")
}

// record summarizes a published snapshot. The first one becomes a snapshot
// event; later ones become allocation events only when the summary moved.
func (s *Service) record(snap state.Snapshot) {
	sum := summarize(snap)

	s.mu.Lock()
	prev := s.summary
	s.summary = &sum
	s.mu.Unlock()

	switch {
	case prev == nil:
		s.events.emit(EventSnapshot, sum.At, sum, Delta{})
	default:
		if d := diffSummaries(*prev, sum); !d.isZero() {
			s.events.emit(EventAllocation, sum.At, sum, d)
		}
	}
}

func summarize(snap state.Snapshot) Summary {
	sum := Summary{
		At:               snap.UpdatedAt,
		RunID:            snap.RunID,
		Items:            len(snap.Budget.BudgetItems),
		Accepted:         len(snap.Successes),
		Rejected:         len(snap.Errors),
		BudgetAmount:     snap.Budget.Amount,
		BalanceRemaining: snap.Budget.BalanceRemaining,
		Drawable:         snap.Budget.TotalDrawable(),
	}
	for _, o := range snap.Outcomes {
		if o.Accepted {
			sum.AcceptedAmount += o.Amount
		}
	}
	return sum
}

func diffSummaries(prev, curr Summary) Delta {
	return Delta{
		Accepted:         curr.Accepted - prev.Accepted,
		Rejected:         curr.Rejected - prev.Rejected,
		AcceptedAmount:   curr.AcceptedAmount - prev.AcceptedAmount,
		BalanceRemaining: curr.BalanceRemaining - prev.BalanceRemaining,
	}
}

func (s *Service) status() Status {
	st := Status{
		StartedAt:       s.started,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		Source:          s.cfg.Source,
		EventCount:      s.events.len(),
		SubscriberCount: s.events.subscribers(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	st.LastPollAt = s.polled
	st.PollCount = s.polls
	st.LastError = s.pollErr
	if s.summary != nil {
		st.Summary = *s.summary
	}
	return st
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.status())
}

func (s *Service) handleBudget(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.store.Budget())
}

// drawsResponse mirrors the two result lists plus every processed request.
type drawsResponse struct {
	RunID     string                `json:"run_id,omitempty"`
	Successes []model.ProcessedDraw `json:"successes"`
	Errors    []model.ErroringDraw  `json:"errors"`
	Outcomes  []model.Outcome       `json:"outcomes"`
}

func (s *Service) handleDraws(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, drawsResponse{
		RunID:     snap.RunID,
		Successes: snap.Successes,
		Errors:    snap.Errors,
		Outcomes:  snap.Outcomes,
	})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.events.list())
}

// handleStream sends the current summary, then every new event, as SSE.
func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	defer s.events.unsubscribe(s.events.subscribe(ch))

	writeSSE(w, Event{Type: EventSnapshot, Timestamp: time.Now(), Summary: s.status().Summary})
	flusher.Flush()

	for {
		select {
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}
