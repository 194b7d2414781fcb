// Package metrics exposes Prometheus collectors for pipeline runs and
// satellite connections.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder bundles the collectors the runner and satellite bridges report
// into. A nil Recorder is valid and records nothing, so instrumentation
// stays optional.
type Recorder struct {
	runsTotal            *prometheus.CounterVec
	stageDuration        *prometheus.HistogramVec
	satelliteReconnects  *prometheus.CounterVec
	eventsDroppedTotal   prometheus.Counter
	wakeWordCooldownHits prometheus.Counter
}

// NewRecorder creates the collectors and registers them with the given
// registerer.
func NewRecorder(registerer prometheus.Registerer) *Recorder {
	r := &Recorder{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assist",
			Name:      "pipeline_runs_total",
			Help:      "Finished pipeline runs by terminal result code (ok for success).",
		}, []string{"result"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assist",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"stage"}),
		satelliteReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assist",
			Name:      "satellite_reconnects_total",
			Help:      "Satellite transport reconnect attempts by protocol.",
		}, []string{"protocol"}),
		eventsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assist",
			Name:      "pipeline_events_dropped_total",
			Help:      "Events discarded because an event sink could not keep up.",
		}),
		wakeWordCooldownHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assist",
			Name:      "wake_word_cooldown_hits_total",
			Help:      "Runs aborted because the wake word fired again within the cooldown window.",
		}),
	}
	registerer.MustRegister(
		r.runsTotal,
		r.stageDuration,
		r.satelliteReconnects,
		r.eventsDroppedTotal,
		r.wakeWordCooldownHits,
	)
	return r
}

// RunFinished counts one finished run. result is the error code of the
// terminal error event, or "ok" for a run that ended with run-end.
func (r *Recorder) RunFinished(result string) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(result).Inc()
}

// StageFinished records the wall time one stage took.
func (r *Recorder) StageFinished(stage string, duration time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// SatelliteReconnect counts one reconnect attempt for a transport.
func (r *Recorder) SatelliteReconnect(protocol string) {
	if r == nil {
		return
	}
	r.satelliteReconnects.WithLabelValues(protocol).Inc()
}

// EventDropped counts one event lost to a full sink.
func (r *Recorder) EventDropped() {
	if r == nil {
		return
	}
	r.eventsDroppedTotal.Inc()
}

// WakeWordCooldownHit counts one duplicate wake-up rejection.
func (r *Recorder) WakeWordCooldownHit() {
	if r == nil {
		return
	}
	r.wakeWordCooldownHits.Inc()
}
