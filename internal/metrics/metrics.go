package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "weddingday"

var (
	ReminderJobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_job_runs_total",
			Help:      "Reminder job invocations by outcome (ok, disabled, error)",
		},
		[]string{"outcome", "trigger"},
	)

	ReminderJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_job_duration_seconds",
			Help:      "Duration of reminder job runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	ScheduledProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_notifications_processed_total",
			Help:      "Scheduled notifications drained by terminal status",
		},
		[]string{"status"},
	)

	RemindersSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_reminders_sent_total",
			Help:      "Starting-soon reminders fanned out",
		},
	)

	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_deliveries_total",
			Help:      "Per-endpoint push deliveries by result (delivered, failed, gone) and transport",
		},
		[]string{"result", "transport"},
	)

	HistoryWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_history_write_failures_total",
			Help:      "History rows that could not be recorded",
		},
	)

	AgendaStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agenda_streams_active",
			Help:      "Open live agenda streams",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected with 429",
		},
	)
)
