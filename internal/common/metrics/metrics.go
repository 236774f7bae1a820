// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rut_api_requests_total",
			Help: "Total number of backend API calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rut_api_request_duration_seconds",
			Help:    "Duration of backend API calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	EditMoves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rut_edit_moves_total",
			Help: "Number of reorder moves applied to working copies",
		},
		[]string{"direction"},
	)

	RequestsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rut_requests_submitted_total",
			Help: "Number of change request submissions",
		},
		[]string{"outcome"},
	)

	StatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rut_status_changes_total",
			Help: "Number of approve/reject attempts",
		},
		[]string{"status", "outcome"},
	)

	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rut_exports_total",
			Help: "Number of export deliveries",
		},
		[]string{"method", "outcome"},
	)

	StaleResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rut_stale_responses_total",
			Help: "Responses discarded because a newer selection superseded them",
		},
	)
)

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
