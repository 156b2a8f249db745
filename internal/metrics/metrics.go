// Package metrics records evaluation counters and timings with Prometheus.
//
// A nil *Recorder is valid and records nothing, so evaluation code never
// has to check whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the evaluation metrics registered on one registry.
type Recorder struct {
	entityEvaluations  prometheus.Counter
	stripsEvaluated    *prometheus.CounterVec
	driverInvalidated  prometheus.Counter
	bindingMisses      prometheus.Counter
	fullExpressionEval prometheus.Counter
	evalErrors         *prometheus.CounterVec
	entityDuration     prometheus.Histogram
}

// New registers the evaluation metrics on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		entityEvaluations: f.NewCounter(prometheus.CounterOpts{
			Name: "animeval_entity_evaluations_total",
			Help: "Total number of entity evaluation passes",
		}),
		stripsEvaluated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "animeval_strips_evaluated_total",
			Help: "Number of NLA strips evaluated, by strip kind",
		}, []string{"kind"}),
		driverInvalidated: f.NewCounter(prometheus.CounterOpts{
			Name: "animeval_driver_invalidations_total",
			Help: "Number of drivers marked invalid",
		}),
		bindingMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "animeval_binding_misses_total",
			Help: "Number of channel contributions dropped because the property did not resolve",
		}),
		fullExpressionEval: f.NewCounter(prometheus.CounterOpts{
			Name: "animeval_full_expression_evals_total",
			Help: "Number of driver expressions evaluated by the full expression host",
		}),
		evalErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "animeval_eval_errors_total",
			Help: "Recoverable evaluation errors, by error code",
		}, []string{"code"}),
		entityDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "animeval_entity_eval_duration_seconds",
			Help:    "Duration of a single entity evaluation",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
	}
}

// EntityEvaluated counts one entity evaluation pass.
func (r *Recorder) EntityEvaluated() {
	if r == nil {
		return
	}
	r.entityEvaluations.Inc()
}

// StripEvaluated counts one evaluated strip of the given kind.
func (r *Recorder) StripEvaluated(kind string) {
	if r == nil {
		return
	}
	r.stripsEvaluated.WithLabelValues(kind).Inc()
}

// DriverInvalidated counts a driver being marked invalid.
func (r *Recorder) DriverInvalidated() {
	if r == nil {
		return
	}
	r.driverInvalidated.Inc()
}

// BindingMiss counts a dropped contribution.
func (r *Recorder) BindingMiss() {
	if r == nil {
		return
	}
	r.bindingMisses.Inc()
}

// FullExpression counts a full expression host call.
func (r *Recorder) FullExpression() {
	if r == nil {
		return
	}
	r.fullExpressionEval.Inc()
}

// Error counts a recoverable evaluation error.
func (r *Recorder) Error(code string) {
	if r == nil {
		return
	}
	r.evalErrors.WithLabelValues(code).Inc()
}

// ObserveEntity records the duration of one entity evaluation.
func (r *Recorder) ObserveEntity(d time.Duration) {
	if r == nil {
		return
	}
	r.entityDuration.Observe(d.Seconds())
}

// TimeEntity starts a timer for one entity evaluation. Call the returned
// function when the evaluation is done.
func (r *Recorder) TimeEntity() func() {
	if r == nil {
		return func() {}
	}
	timer := prometheus.NewTimer(r.entityDuration)
	return func() { timer.ObserveDuration() }
}
