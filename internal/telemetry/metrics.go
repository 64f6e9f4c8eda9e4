// Package telemetry provides Prometheus metrics and OpenTelemetry tracing helpers.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider call outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeMisconfigured = "misconfigured"
	OutcomeRemoteError   = "remote_error"
	OutcomeInvalidShape  = "invalid_shape"
	OutcomeConnection    = "connection_failed"
)

// Reasons an evaluation tick did not call the provider.
const (
	SkipInFlight = "in_flight"
	SkipLoading  = "loading"
	SkipBacklog  = "backlog"
	SkipNoFrame  = "no_frame"
	SkipStale    = "stale"
)

var (
	once sync.Once

	ProviderRequests   *prometheus.CounterVec
	ProviderLatency    prometheus.Observer
	CommentsQueued     prometheus.Counter
	CommentsDuplicate  prometheus.Counter
	CommentsDisplayed  prometheus.Counter
	EvaluationsSkipped *prometheus.CounterVec

	ActiveCaptures prometheus.Gauge
	ActiveWidgets  prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "commentary_provider_requests_total",
			Help: "Vision provider calls by outcome",
		}, []string{"outcome"})
		ProviderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "commentary_provider_latency_seconds",
			Help:    "Vision provider round trip seconds",
			Buckets: prometheus.DefBuckets,
		})
		CommentsQueued = promauto.NewCounter(prometheus.CounterOpts{
			Name: "commentary_comments_queued_total",
			Help: "Comments accepted into a pending queue",
		})
		CommentsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
			Name: "commentary_comments_duplicate_total",
			Help: "Comments dropped by the seen cache",
		})
		CommentsDisplayed = promauto.NewCounter(prometheus.CounterOpts{
			Name: "commentary_comments_displayed_total",
			Help: "Comments moved from a pending queue into the message list",
		})
		EvaluationsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "commentary_evaluations_skipped_total",
			Help: "Evaluation triggers that did not reach the provider",
		}, []string{"reason"})
		ActiveCaptures = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "commentary_active_captures",
			Help: "Widgets with an active capture session",
		})
		ActiveWidgets = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "commentary_active_widgets",
			Help: "Widgets currently hosted",
		})
	})
}

func ObserveProvider(outcome string, d time.Duration) {
	if ProviderRequests != nil {
		ProviderRequests.WithLabelValues(outcome).Inc()
	}
	if ProviderLatency != nil {
		ProviderLatency.Observe(d.Seconds())
	}
}

func CommentQueued() {
	if CommentsQueued != nil {
		CommentsQueued.Inc()
	}
}

func CommentDuplicate() {
	if CommentsDuplicate != nil {
		CommentsDuplicate.Inc()
	}
}

func CommentDisplayed() {
	if CommentsDisplayed != nil {
		CommentsDisplayed.Inc()
	}
}

func EvaluationSkipped(reason string) {
	if EvaluationsSkipped != nil {
		EvaluationsSkipped.WithLabelValues(reason).Inc()
	}
}

// CaptureActive moves the active capture gauge up or down.
func CaptureActive(active bool) {
	if ActiveCaptures == nil {
		return
	}
	if active {
		ActiveCaptures.Inc()
	} else {
		ActiveCaptures.Dec()
	}
}

func SetActiveWidgets(n int) {
	if ActiveWidgets != nil {
		ActiveWidgets.Set(float64(n))
	}
}
