// Package metrics holds the Prometheus collectors shared by the API and consumer
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timing_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timing_predictions_total",
			Help: "Timing predictions served, by category and whether history was available",
		},
		[]string{"category", "source"},
	)

	PredictionConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timing_prediction_confidence",
			Help:    "Confidence of served timing predictions",
			Buckets: []float64{0.3, 0.5, 0.7, 0.9, 1},
		},
	)

	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timing_feedback_total",
			Help: "Feedback records by response type and outcome",
		},
		[]string{"response_type", "status"},
	)

	PolicyDailyLimit = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timing_policy_daily_limit",
			Help:    "Daily limits of computed frequency policies",
			Buckets: []float64{3, 5, 7, 10},
		},
	)

	StorageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timing_storage_failures_total",
			Help: "Failed store calls by operation",
		},
		[]string{"op"},
	)

	IngestEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timing_ingest_events_total",
			Help: "Interaction events accepted or rejected by the ingest API",
		},
		[]string{"status"},
	)

	ConsumerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timing_consumer_events_total",
			Help: "Interaction events handled by the queue consumer",
		},
		[]string{"status"},
	)

	ConsumerMessagesReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timing_consumer_messages_received_total",
			Help: "SQS messages received by the queue consumer",
		},
	)

	ConsumerReceiveErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timing_consumer_receive_errors_total",
			Help: "Failed SQS receive calls",
		},
	)

	RefreshedPoliciesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timing_refreshed_policies_total",
			Help: "Frequency policy snapshots written by the refresher",
		},
		[]string{"status"},
	)
)
