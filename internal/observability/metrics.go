package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	apiRequestsTotal  *prometheus.CounterVec
	apiLatencySeconds *prometheus.HistogramVec
	apiErrorsTotal    *prometheus.CounterVec

	complaintsSubmittedTotal *prometheus.CounterVec
	statusTransitionsTotal   *prometheus.CounterVec
	supportTogglesTotal      *prometheus.CounterVec
	loginsTotal              *prometheus.CounterVec
	uploadsRejectedTotal     *prometheus.CounterVec
	eventsPublishedTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		complaintsSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complaints_submitted_total",
			Help: "Complaints accepted, by complaint type.",
		}, []string{"type"})

		statusTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "status_transitions_total",
			Help: "Ledger entries appended after submission, by complaint type.",
		}, []string{"type"})

		supportTogglesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_toggles_total",
			Help: "Support toggles on campus complaints, by resulting state.",
		}, []string{"result"})

		loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Sign-in attempts, by outcome.",
		}, []string{"result"})

		uploadsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uploads_rejected_total",
			Help: "Complaint image uploads rejected, by reason.",
		}, []string{"reason"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Status change events published to the message bus, by outcome.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			complaintsSubmittedTotal,
			statusTransitionsTotal,
			supportTogglesTotal,
			loginsTotal,
			uploadsRejectedTotal,
			eventsPublishedTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ComplaintsSubmitted counts accepted submissions.
func ComplaintsSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return complaintsSubmittedTotal
}

// StatusTransitions counts reviewer status changes.
func StatusTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return statusTransitionsTotal
}

// SupportToggles counts support toggles.
func SupportToggles() *prometheus.CounterVec {
	RegisterMetrics()
	return supportTogglesTotal
}

// Logins counts sign-in attempts.
func Logins() *prometheus.CounterVec {
	RegisterMetrics()
	return loginsTotal
}

// UploadsRejected counts rejected image uploads.
func UploadsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsRejectedTotal
}

// EventsPublished counts status change events sent to NATS.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}
