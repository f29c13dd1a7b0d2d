package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records counters for point-ledger mutations.
type LedgerMetrics struct {
	mutations *prometheus.CounterVec
	clamped   prometheus.Counter
	duration  *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_mutations_total",
		Help: "Accepted ledger mutations by operation.",
	}, []string{"op"})
	clamped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_floored_deductions_total",
		Help: "Deductions that left the balance at its floor.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_mutation_duration_seconds",
		Help:    "Duration of ledger mutations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	reg.MustRegister(mutations, clamped, duration)
	return &LedgerMetrics{
		mutations: mutations,
		clamped:   clamped,
		duration:  duration,
	}
}

// IncMutation increments the mutation counter for the named operation.
func (l *LedgerMetrics) IncMutation(op string) {
	if l == nil || l.mutations == nil {
		return
	}
	l.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncClamped increments the clamped-deduction counter.
func (l *LedgerMetrics) IncClamped() {
	if l == nil || l.clamped == nil {
		return
	}
	l.clamped.Inc()
}

// ObserveDuration records the duration for the named operation.
func (l *LedgerMetrics) ObserveDuration(op string, duration time.Duration) {
	if l == nil || l.duration == nil {
		return
	}
	l.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}
