package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToggleOutcomes counts like/follow toggles by relationship and resulting action.
	ToggleOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_toggle_outcomes_total",
		Help: "Total like/follow toggles by relationship and resulting action",
	}, []string{"relationship", "action"})

	// ToggleRaces counts toggle writes that lost a uniqueness race and were
	// folded into the idempotent outcome.
	ToggleRaces = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_toggle_races_total",
		Help: "Total toggle writes resolved through the unique constraint",
	}, []string{"relationship"})

	// NotificationsDispatched counts notifications written by action.
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_notifications_dispatched_total",
		Help: "Total notifications created by action type",
	}, []string{"action"})

	// NotificationsDropped counts best-effort notifications that failed to persist.
	NotificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_notifications_dropped_total",
		Help: "Total notifications dropped after a storage failure",
	}, []string{"action"})

	// PollVotes counts poll vote attempts by result.
	PollVotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_poll_votes_total",
		Help: "Total poll vote attempts by result",
	}, []string{"result"})

	// FeedLatency records feed composition latency by scope.
	FeedLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "huddle_feed_latency_seconds",
		Help:    "Feed composition latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)

// TrackFeed returns a function that records feed latency when called (e.g. defer).
func TrackFeed(scope string) func() {
	start := time.Now()
	return func() {
		FeedLatency.WithLabelValues(scope).Observe(time.Since(start).Seconds())
	}
}
