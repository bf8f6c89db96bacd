package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used as label values.
const (
	OutcomeProcessed = "processed"
	OutcomeIdle      = "idle"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publisher_runs_total",
		Help: "Publication runs by outcome",
	}, []string{"outcome"})

	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "publisher_run_duration_seconds",
		Help:    "Duration of a publication run",
		Buckets: prometheus.DefBuckets,
	})

	DueItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "publisher_due_items",
		Help: "Due items found by the last scan",
	})

	DispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publisher_dispatch_total",
		Help: "Webhook dispatches by platform and result",
	}, []string{"platform", "result"})

	StatusUpdateErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "publisher_status_update_errors_total",
		Help: "Items dispatched successfully but not marked published",
	})

	WebhookRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "publisher_webhook_request_duration_seconds",
		Help:    "Duration of outbound webhook requests",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
	}, []string{"code"})

	UnpublishedItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "publisher_unpublished_items",
		Help: "Items not yet published, regardless of schedule",
	})

	RecentlyPublishedItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "publisher_recently_published_items",
		Help: "Items published within the diagnostics window",
	})

	FutureItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "publisher_future_items",
		Help: "Unpublished items scheduled after now",
	})
)

// MustRegister registers the publisher metrics.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		RunsTotal,
		RunDuration,
		DueItems,
		DispatchTotal,
		StatusUpdateErrors,
		WebhookRequestDuration,
		UnpublishedItems,
		RecentlyPublishedItems,
		FutureItems,
	)
}

// ObserveRun records the outcome and duration of a run.
func ObserveRun(outcome string, start time.Time) {
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.Observe(time.Since(start).Seconds())
}

// ObserveDispatch counts a dispatch result for a platform.
func ObserveDispatch(platform string, success bool) {
	if platform == "" {
		platform = "unknown"
	}
	result := "success"
	if !success {
		result = "failure"
	}
	DispatchTotal.WithLabelValues(platform, result).Inc()
}

// ObserveWebhookRequest records the duration of a webhook call. A zero code
// means the request failed before a response was received.
func ObserveWebhookRequest(code int, start time.Time) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	WebhookRequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
}
