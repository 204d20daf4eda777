// Package metrics provides Prometheus metrics for the round engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SubmissionsTotal counts submissions by outcome.
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_submissions_total",
			Help: "Total number of operator submissions by outcome",
		},
		[]string{"feed", "status"},
	)

	// RoundsOpenedTotal counts opened rounds.
	RoundsOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_rounds_opened_total",
			Help: "Total number of rounds opened",
		},
		[]string{"feed"},
	)

	// RoundsFinalizedTotal counts finalized rounds by trigger (capacity or timeout).
	RoundsFinalizedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_rounds_finalized_total",
			Help: "Total number of rounds finalized",
		},
		[]string{"feed", "trigger"},
	)

	// StaleRolloversTotal counts sub-quorum timeouts that carried the previous answer forward.
	StaleRolloversTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_stale_rollovers_total",
			Help: "Total number of stale rollovers",
		},
		[]string{"feed"},
	)

	// RoundsDiscardedTotal counts sub-quorum timeouts on feeds without any answer.
	RoundsDiscardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_rounds_discarded_total",
			Help: "Total number of timed out rounds discarded before the first answer",
		},
		[]string{"feed"},
	)

	// RoundSubmissionCount observes how many submissions a published round carried.
	RoundSubmissionCount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_round_submission_count",
			Help:    "Number of submissions per finalized round",
			Buckets: []float64{1, 2, 3, 5, 7, 10, 15, 21, 31},
		},
		[]string{"feed"},
	)

	// FeedAnswer is the latest published answer, scaled by the feed decimals.
	FeedAnswer = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oracle_feed_answer",
			Help: "Latest published answer (approximate, decimals applied)",
		},
		[]string{"feed"},
	)

	// FeedLastUpdate is the unix timestamp of the latest genuine answer.
	FeedLastUpdate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oracle_feed_last_update_timestamp",
			Help: "Unix timestamp of the latest non-stale answer",
		},
		[]string{"feed"},
	)

	// EventsDroppedTotal counts events a sink could not accept.
	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_events_dropped_total",
			Help: "Total number of events dropped by a sink",
		},
		[]string{"sink"},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint"},
	)
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		RoundsOpenedTotal,
		RoundsFinalizedTotal,
		StaleRolloversTotal,
		RoundsDiscardedTotal,
		RoundSubmissionCount,
		FeedAnswer,
		FeedLastUpdate,
		EventsDroppedTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// ServeHTTP serves Prometheus metrics on addr at path.
func ServeHTTP(addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordSubmission records the outcome of one submission.
func RecordSubmission(feed, status string) {
	SubmissionsTotal.WithLabelValues(feed, status).Inc()
}

// RecordRoundOpened records a newly opened round.
func RecordRoundOpened(feed string) {
	RoundsOpenedTotal.WithLabelValues(feed).Inc()
}

// RecordFinalization records a published round.
func RecordFinalization(feed, trigger string, submissions int, answer float64, updatedAt time.Time) {
	RoundsFinalizedTotal.WithLabelValues(feed, trigger).Inc()
	RoundSubmissionCount.WithLabelValues(feed).Observe(float64(submissions))
	FeedAnswer.WithLabelValues(feed).Set(answer)
	FeedLastUpdate.WithLabelValues(feed).Set(float64(updatedAt.Unix()))
}

// RecordStaleRollover records a stale rollover.
func RecordStaleRollover(feed string) {
	StaleRolloversTotal.WithLabelValues(feed).Inc()
}

// RecordRoundDiscarded records a discarded first round.
func RecordRoundDiscarded(feed string) {
	RoundsDiscardedTotal.WithLabelValues(feed).Inc()
}

// RecordEventDropped records an event a sink dropped.
func RecordEventDropped(sink string) {
	EventsDroppedTotal.WithLabelValues(sink).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
