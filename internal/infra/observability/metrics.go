package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the ledger engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	actionDuration *prometheus.HistogramVec
	actionsTotal   *prometheus.CounterVec
	commitFailures *prometheus.CounterVec
	lockTimeouts   prometheus.Counter
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		actionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dueskeeper_action_duration_seconds",
				Help:    "Duration of ledger actions end to end (load, mutate, commit).",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		actionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dueskeeper_actions_total",
				Help: "Total ledger actions processed, by action name and outcome.",
			},
			[]string{"action", "status"},
		),
		commitFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dueskeeper_commit_failures_total",
				Help: "Total durable commit failures, by store document.",
			},
			[]string{"store"},
		),
		lockTimeouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dueskeeper_lock_timeouts_total",
				Help: "Total writer-lock acquisitions that timed out.",
			},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dueskeeper_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dueskeeper_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordActionDuration records the end-to-end duration of an action.
func (m *Metrics) RecordActionDuration(action string, d time.Duration) {
	m.actionDuration.WithLabelValues(action).Observe(d.Seconds())
}

// IncrAction increments the action counter with an outcome label.
func (m *Metrics) IncrAction(action, status string) {
	m.actionsTotal.WithLabelValues(action, status).Inc()
}

// IncrCommitFailure increments the commit failure counter for a store.
func (m *Metrics) IncrCommitFailure(store string) {
	m.commitFailures.WithLabelValues(store).Inc()
}

// IncrLockTimeout increments the writer-lock timeout counter.
func (m *Metrics) IncrLockTimeout() {
	m.lockTimeouts.Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// LedgerSnapshot is a point-in-time view of engine metrics suitable for the
// GET /v1/metrics/ledger endpoint.
type LedgerSnapshot struct {
	TotalActions         int64   `json:"total_actions"`
	ErrorRate            float64 `json:"error_rate"`
	MembersWriteFailures int64   `json:"members_write_failures"`
	LedgerWriteFailures  int64   `json:"ledger_write_failures"`
	LockTimeouts         int64   `json:"lock_timeouts"`
	CacheHitRate         float64 `json:"cache_hit_rate"`
}

// GetLedgerSnapshot gathers current counter values from the registry.
// Prometheus counters expose cumulative values, so rates are all-time.
func (m *Metrics) GetLedgerSnapshot() *LedgerSnapshot {
	var total, failed float64
	mfs, err := m.Registry.Gather()
	if err == nil {
		for _, mf := range mfs {
			if mf.GetName() != "dueskeeper_actions_total" {
				continue
			}
			for _, metric := range mf.GetMetric() {
				v := metric.GetCounter().GetValue()
				total += v
				for _, l := range metric.GetLabel() {
					if l.GetName() == "status" && l.GetValue() == "error" {
						failed += v
					}
				}
			}
		}
	}

	errorRate := float64(0)
	if total > 0 {
		errorRate = failed / total
	}

	cacheHits := getCounterValue(m.cacheHits, "ledger")
	cacheMisses := getCounterValue(m.cacheMisses, "ledger")
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &LedgerSnapshot{
		TotalActions:         int64(total),
		ErrorRate:            errorRate,
		MembersWriteFailures: int64(getCounterValue(m.commitFailures, "members")),
		LedgerWriteFailures:  int64(getCounterValue(m.commitFailures, "ledger")),
		LockTimeouts:         int64(getPlainCounterValue(m.lockTimeouts)),
		CacheHitRate:         cacheHitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getPlainCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
