package daemon

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	draws           *prometheus.CounterVec
	balance         prometheus.Gauge
	preloadFailures prometheus.Counter
	passDuration    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "drawdown",
			Name:      "draws_total",
			Help:      "Draw requests processed, by result.",
		}, []string{"result"}),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "drawdown",
			Name:      "balance_remaining",
			Help:      "Budget balance remaining after the last allocation pass.",
		}),
		preloadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "drawdown",
			Name:      "preload_failures_total",
			Help:      "Polls whose budget or draw request fetch failed.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "drawdown",
			Name:      "pass_duration_seconds",
			Help:      "Time spent fetching and allocating one batch.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.draws, m.balance, m.preloadFailures, m.passDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return m, nil
}
