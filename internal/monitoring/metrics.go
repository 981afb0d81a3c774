// Package monitoring exposes Prometheus metrics for the render loop:
// passes, commits, patch ops by kind, and effect execution. All methods
// are safe on a nil receiver so the runtime can run unmetered.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ignius299792458/rv-react/internal/reconcile"
)

// Metrics holds the render-loop collectors.
type Metrics struct {
	passesCommitted prometheus.Counter
	passesAborted   prometheus.Counter
	passDuration    prometheus.Histogram
	patchOps        *prometheus.CounterVec
	effectsRun      prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		passesCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rvreact",
			Name:      "render_passes_committed_total",
			Help:      "Render passes that reached commit.",
		}),
		passesAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rvreact",
			Name:      "render_passes_aborted_total",
			Help:      "Render passes abandoned before commit.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rvreact",
			Name:      "render_pass_duration_seconds",
			Help:      "Wall time of committed render passes.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		patchOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rvreact",
			Name:      "patch_ops_total",
			Help:      "Patch operations emitted by reconciliation.",
		}, []string{"kind"}),
		effectsRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rvreact",
			Name:      "effects_run_total",
			Help:      "Deferred effects executed after commit.",
		}),
	}

	reg.MustRegister(
		m.passesCommitted,
		m.passesAborted,
		m.passDuration,
		m.patchOps,
		m.effectsRun,
	)
	return m
}

// PassCommitted records a committed pass and its patch.
func (m *Metrics) PassCommitted(duration time.Duration, patch []reconcile.PatchOp) {
	if m == nil {
		return
	}
	m.passesCommitted.Inc()
	m.passDuration.Observe(duration.Seconds())
	for _, op := range patch {
		m.patchOps.WithLabelValues(op.Kind.String()).Inc()
	}
}

// PassAborted records an abandoned pass.
func (m *Metrics) PassAborted() {
	if m == nil {
		return
	}
	m.passesAborted.Inc()
}

// EffectRan records one executed deferred effect.
func (m *Metrics) EffectRan() {
	if m == nil {
		return
	}
	m.effectsRun.Inc()
}
