package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomrenting",
			Name:      "api_requests_total",
			Help:      "Rental API requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomrenting",
			Name:      "api_request_duration_seconds",
			Help:      "Rental API request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	workflowOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomrenting",
			Name:      "booking_workflow_outcomes_total",
			Help:      "Terminal states reached by booking attempts.",
		},
		[]string{"state"},
	)

	serverRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomrenting",
			Name:      "stub_http_requests_total",
			Help:      "Requests served by the stub rental API by path.",
		},
		[]string{"path"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, apiDuration, workflowOutcomes, serverRequests)
	})
}

// ObserveAPI records one outbound call. code is 0 for transport errors.
func ObserveAPI(endpoint string, code int, dur time.Duration) {
	apiRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	apiDuration.WithLabelValues(endpoint).Observe(dur.Seconds())
}

// IncWorkflowOutcome counts an attempt that ended in state.
func IncWorkflowOutcome(state string) {
	workflowOutcomes.WithLabelValues(state).Inc()
}

// IncHTTP increments the stub server counter for a path label.
func IncHTTP(path string) {
	serverRequests.WithLabelValues(path).Inc()
}
