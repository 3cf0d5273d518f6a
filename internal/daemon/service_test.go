package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/drawdown/internal/model"
	"github.com/theirongolddev/drawdown/internal/source"
	"github.com/theirongolddev/drawdown/internal/state"
)

type failingFetcher struct{}

func (failingFetcher) GetBudget(context.Context) (*model.Budget, error) {
	return nil, errors.New("upstream down")
}

func (failingFetcher) GetDrawRequests(context.Context) ([]model.DrawRequest, error) {
	return nil, nil
}

func newTestService(t *testing.T, f state.Fetcher) (*Service, *state.Store) {
	t.Helper()
	st := state.New()
	s, err := New(Config{Source: "fixture", Interval: 10 * time.Second, EventsBuffer: 5}, st, f, zerolog.Nop(), nil)
	require.NoError(t, err)
	return s, st
}

func TestDiffSummaries(t *testing.T) {
	prev := Summary{
		Accepted:         4,
		Rejected:         9,
		AcceptedAmount:   102500,
		BalanceRemaining: 6000,
	}
	curr := Summary{
		Accepted:         5,
		Rejected:         8,
		AcceptedAmount:   102510,
		BalanceRemaining: 5990,
	}

	delta := diffSummaries(prev, curr)
	if delta.Accepted != 1 {
		t.Fatalf("Accepted delta = %d, want 1", delta.Accepted)
	}
	if delta.Rejected != -1 {
		t.Fatalf("Rejected delta = %d, want -1", delta.Rejected)
	}
	if math.Abs(delta.AcceptedAmount-10) > 1e-9 {
		t.Fatalf("AcceptedAmount delta = %.2f, want 10", delta.AcceptedAmount)
	}
	if math.Abs(delta.BalanceRemaining+10) > 1e-9 {
		t.Fatalf("BalanceRemaining delta = %.2f, want -10", delta.BalanceRemaining)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSummaries(prev, prev).isZero() {
		t.Fatal("identical summaries should give a zero delta")
	}
}

func TestEventLog_RingBuffer(t *testing.T) {
	l := newEventLog(2)
	for range 3 {
		l.emit(EventAllocation, time.Now(), Summary{}, Delta{})
	}

	events := l.list()
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Equal(t, int64(3), events[1].ID)
}

func TestEventLog_FansOutWithoutBlocking(t *testing.T) {
	l := newEventLog(10)
	fast := make(chan Event, 4)
	full := make(chan Event) // unbuffered, never read
	l.subscribe(fast)
	id := l.subscribe(full)
	assert.Equal(t, 2, l.subscribers())

	l.emit(EventSnapshot, time.Now(), Summary{Accepted: 1}, Delta{})
	l.unsubscribe(id)

	require.Len(t, fast, 1)
	assert.Equal(t, 1, (<-fast).Summary.Accepted)
	assert.Equal(t, 1, l.subscribers())
}

func TestPollOnce_UpdatesStatusAndMetrics(t *testing.T) {
	s, st := newTestService(t, source.Fixture{})

	s.pollOnce(context.Background())
	s.record(st.Snapshot())

	status := s.status()
	assert.Equal(t, int64(1), status.PollCount)
	assert.Empty(t, status.LastError)
	assert.Equal(t, 4, status.Summary.Accepted)
	assert.Equal(t, 9, status.Summary.Rejected)
	assert.InDelta(t, 102500, status.Summary.AcceptedAmount, 1e-9)
	assert.InDelta(t, 6000, status.Summary.BalanceRemaining, 1e-9)

	assert.InDelta(t, 4, testutil.ToFloat64(s.metrics.draws.WithLabelValues("accepted")), 1e-9)
	assert.InDelta(t, 9, testutil.ToFloat64(s.metrics.draws.WithLabelValues("rejected")), 1e-9)
	assert.InDelta(t, 6000, testutil.ToFloat64(s.metrics.balance), 1e-9)
	assert.Zero(t, testutil.ToFloat64(s.metrics.preloadFailures))
}

func TestPollOnce_FailureRecordsError(t *testing.T) {
	s, st := newTestService(t, failingFetcher{})

	s.pollOnce(context.Background())

	status := s.status()
	assert.Equal(t, int64(1), status.PollCount)
	assert.Contains(t, status.LastError, "upstream down")
	assert.InDelta(t, 1, testutil.ToFloat64(s.metrics.preloadFailures), 1e-9)
	assert.Empty(t, st.Snapshot().RunID, "failed preload must not publish")
}

func TestRecord_EmitsOnlyOnChange(t *testing.T) {
	s, st := newTestService(t, source.Fixture{})
	ctx := context.Background()

	_, err := st.Preload(ctx, source.Fixture{})
	require.NoError(t, err)
	s.record(st.Snapshot())

	// Same batch against the same fetched budget gives the same summary.
	_, err = st.Preload(ctx, source.Fixture{})
	require.NoError(t, err)
	s.record(st.Snapshot())

	events := s.events.list()
	require.Len(t, events, 1)
	assert.Equal(t, EventSnapshot, events[0].Type)

	// Processing the same batch again on the drawn-down budget changes it.
	reqs, err := source.Fixture{}.GetDrawRequests(ctx)
	require.NoError(t, err)
	st.Process(reqs)
	s.record(st.Snapshot())

	events = s.events.list()
	require.Len(t, events, 2)
	assert.Equal(t, EventAllocation, events[1].Type)
	assert.Equal(t, int64(2), events[1].ID)
	assert.False(t, events[1].Delta.isZero())
}

func TestHandler_Endpoints(t *testing.T) {
	s, st := newTestService(t, source.Fixture{})
	s.pollOnce(context.Background())
	s.record(st.Snapshot())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	get := func(path string) (*http.Response, []byte) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, body
	}

	resp, body := get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))

	resp, body = get("/v1/budget")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var b model.Budget
	require.NoError(t, json.Unmarshal(body, &b))
	assert.InDelta(t, 6000, b.BalanceRemaining, 1e-9)
	require.Len(t, b.BudgetItems, 3)

	resp, body = get("/v1/draws")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var draws drawsResponse
	require.NoError(t, json.Unmarshal(body, &draws))
	assert.Equal(t, []model.ProcessedDraw{
		{DrawID: model.Ptr(3.0), Order: 2},
		{DrawID: model.Ptr(6.0), Order: 4},
		{DrawID: model.Ptr(5.0), Order: 5},
		{DrawID: model.Ptr(2.0), Order: 10},
	}, draws.Successes)
	assert.Len(t, draws.Errors, 9)
	assert.Len(t, draws.Outcomes, 13)

	resp, body = get("/v1/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status Status
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, "fixture", status.Source)
	assert.Equal(t, 1, status.EventCount)

	resp, body = get("/v1/events")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []Event
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events, 1)

	resp, body = get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `drawdown_draws_total{result="accepted"} 4`))

	resp, _ = get("/v1/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleStream_SendsCurrentSummary(t *testing.T) {
	s, st := newTestService(t, source.Fixture{})
	s.pollOnce(context.Background())
	s.record(st.Snapshot())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.handleStream(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.status().SubscriberCount == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: snapshot\n"), body)
	assert.Contains(t, body, `"accepted":4`)
	assert.Zero(t, s.status().SubscriberCount)
}
