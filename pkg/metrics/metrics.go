package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec

	// Record store metrics
	StoreOperations *prometheus.CounterVec
	StoreLatency    *prometheus.HistogramVec

	// Notification dispatcher metrics
	NotificationsEnqueued prometheus.Counter
	NotificationsSent     prometheus.Counter
	NotificationsFailed   *prometheus.CounterVec
	DeliveryAttempts      prometheus.Counter
	DrainCyclesSkipped    prometheus.Counter
	DrainDuration         prometheus.Histogram
}

// New creates all application metrics on a fresh registry, so several
// instances can coexist in one process.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		StoreOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of record store operations",
		}, []string{"operation", "collection", "status"}),
		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of record store operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		NotificationsEnqueued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_enqueued_total",
			Help:      "Total number of notification intents enqueued",
		}),
		NotificationsSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications delivered",
		}),
		NotificationsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Total number of notifications that reached the failed state",
		}, []string{"reason"}),
		DeliveryAttempts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_delivery_attempts_total",
			Help:      "Total number of delivery attempts made against a channel",
		}),
		DrainCyclesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_drain_skipped_total",
			Help:      "Drain cycles skipped because notifications are disabled or unconfigured",
		}),
		DrainDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_drain_duration_seconds",
			Help:      "Time spent in one drain cycle",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}
