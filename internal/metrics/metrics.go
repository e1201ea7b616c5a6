// Package metrics defines the Prometheus instruments of the equation
// compiler. A nil *Compiler is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Compiler holds the compiler's instruments.
type Compiler struct {
	compilations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	submissions  prometheus.Counter
	coalesced    prometheus.Counter
	pending      prometheus.Gauge
}

// NewCompiler creates the instruments and registers them with reg.
func NewCompiler(reg prometheus.Registerer) *Compiler {
	f := promauto.With(reg)
	return &Compiler{
		compilations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "texpen",
			Name:      "compilations_total",
			Help:      "Backend invocations by backend and outcome.",
		}, []string{"backend", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "texpen",
			Name:      "compilation_duration_seconds",
			Help:      "Time spent in a backend per compilation.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"backend"}),
		submissions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "texpen",
			Name:      "submissions_total",
			Help:      "Compilation requests received by the worker.",
		}),
		coalesced: f.NewCounter(prometheus.CounterOpts{
			Namespace: "texpen",
			Name:      "coalesced_total",
			Help:      "Requests that replaced a pending task for the same object.",
		}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "texpen",
			Name:      "pending_tasks",
			Help:      "Tasks waiting in the pending work table.",
		}),
	}
}

// ObserveCompilation records one backend invocation.
func (c *Compiler) ObserveCompilation(backend, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.compilations.WithLabelValues(backend, outcome).Inc()
	c.duration.WithLabelValues(backend).Observe(d.Seconds())
}

// Submitted records a received compile request.
func (c *Compiler) Submitted() {
	if c == nil {
		return
	}
	c.submissions.Inc()
}

// Coalesced records a request that overwrote a pending task.
func (c *Compiler) Coalesced() {
	if c == nil {
		return
	}
	c.coalesced.Inc()
}

// SetPending records the pending table size.
func (c *Compiler) SetPending(n int) {
	if c == nil {
		return
	}
	c.pending.Set(float64(n))
}
