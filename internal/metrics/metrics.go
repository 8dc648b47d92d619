package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every exported metric.
const Namespace = "tronxfer"

// Request outcomes recorded by RecordAttempt.
const (
	OutcomeSuccess     = "success"
	OutcomeTransport   = "transport"
	OutcomeAnomalous   = "anomalous"
	OutcomeRateLimited = "rate_limited"
	OutcomeCancelled   = "cancelled"
)

// Wallet results recorded by RecordWallet.
const (
	WalletDone   = "done"
	WalletFailed = "failed"
)

// Metrics holds the run's Prometheus collectors. A nil *Metrics is valid and
// records nothing, so callers never need to check.
type Metrics struct {
	requests       *prometheus.CounterVec
	requestLatency prometheus.Histogram
	pagesFetched   prometheus.Counter
	transfers      prometheus.Counter
	rowsWritten    prometheus.Counter
	wallets        *prometheus.CounterVec
	walletDuration prometheus.Histogram
	pending        prometheus.Gauge
	breakerOpen    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "explorer",
			Name:      "requests_total",
			Help:      "Explorer page requests by outcome",
		}, []string{"outcome"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "explorer",
			Name:      "request_duration_seconds",
			Help:      "Explorer page request duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pages_fetched_total",
			Help:      "Pages fetched successfully",
		}),
		transfers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transfers_fetched_total",
			Help:      "Raw transfers received from the explorer",
		}),
		rowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rows_written_total",
			Help:      "Transfer rows durably appended to the output store",
		}),
		wallets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "wallets_total",
			Help:      "Wallets finished by result",
		}, []string{"result"}),
		walletDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "wallet_duration_seconds",
			Help:      "Time to fetch and write one wallet",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "wallets_pending",
			Help:      "Wallets left in this run's worklist",
		}),
		breakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "failure_breaker_open",
			Help:      "1 while the runner is cooling down after consecutive wallet failures",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.requests,
		m.requestLatency,
		m.pagesFetched,
		m.transfers,
		m.rowsWritten,
		m.wallets,
		m.walletDuration,
		m.pending,
		m.breakerOpen,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	return m, nil
}

// RecordAttempt counts one explorer request and its duration.
func (m *Metrics) RecordAttempt(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.requestLatency.Observe(d.Seconds())
}

// RecordPage counts a successfully fetched page and its transfers.
func (m *Metrics) RecordPage(transfers int) {
	if m == nil {
		return
	}
	m.pagesFetched.Inc()
	m.transfers.Add(float64(transfers))
}

// AddRows counts rows durably written.
func (m *Metrics) AddRows(n int) {
	if m == nil {
		return
	}
	m.rowsWritten.Add(float64(n))
}

// RecordWallet counts a finished wallet.
func (m *Metrics) RecordWallet(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.wallets.WithLabelValues(result).Inc()
	m.walletDuration.Observe(d.Seconds())
}

// SetPending sets the remaining worklist size.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

// SetBreakerOpen flags whether the failure breaker is cooling down.
func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.breakerOpen.Set(1)
		return
	}
	m.breakerOpen.Set(0)
}
