package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the application's Prometheus instruments. A nil *Recorder
// is valid and records nothing.
type Recorder struct {
	usecaseRequests  *prometheus.CounterVec
	usecaseDuration  *prometheus.HistogramVec
	externalRequests *prometheus.CounterVec
	externalDuration *prometheus.HistogramVec
}

// New registers the instruments on reg under the given namespace.
func New(reg prometheus.Registerer, namespace string) *Recorder {
	r := &Recorder{
		usecaseRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usecase_requests_total",
			Help:      "Use case executions by operation and outcome.",
		}, []string{"operation", "outcome"}),
		usecaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "usecase_duration_seconds",
			Help:      "Use case latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		externalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_requests_total",
			Help:      "Outbound calls to third-party services.",
		}, []string{"target", "operation", "outcome"}),
		externalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_request_duration_seconds",
			Help:      "Outbound call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target", "operation"}),
	}
	reg.MustRegister(r.usecaseRequests, r.usecaseDuration, r.externalRequests, r.externalDuration)
	return r
}

// UseCase records one execution of a use case.
func (r *Recorder) UseCase(operation, outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.usecaseRequests.WithLabelValues(operation, outcome).Inc()
	r.usecaseDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// External records one outbound call.
func (r *Recorder) External(target, operation string, err error, took time.Duration) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.externalRequests.WithLabelValues(target, operation, outcome).Inc()
	r.externalDuration.WithLabelValues(target, operation).Observe(took.Seconds())
}
