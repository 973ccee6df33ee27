// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EnrollmentOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollment_operations_total",
			Help: "Enrollment lifecycle operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	CourseSeatsEnrolled = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "course_seats_enrolled",
			Help: "Enrolled counter of a course as of its last lifecycle change",
		},
		[]string{"course"},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	LoginLocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "login_locks_total",
			Help: "Number of times a username got locked out",
		},
	)

	ThrottleStoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_throttle_store_errors_total",
			Help: "Errors talking to the attempt store, by operation",
		},
		[]string{"operation"},
	)

	MessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Direct messages sent between users",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
