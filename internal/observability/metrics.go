// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Curve metrics
	PurchasesTotal   prometheus.Counter
	SalesTotal       prometheus.Counter
	HostFeeClaims    prometheus.Counter
	TradeValueWei    *prometheus.CounterVec
	FeesCollectedWei *prometheus.CounterVec

	// Membership metrics
	PassesMinted prometheus.Counter
	PassesBurned prometheus.Counter

	// Campaign metrics
	CampaignsCreated   prometheus.Counter
	CampaignsCompleted prometheus.Counter
	CampaignsEnded     prometheus.Counter
	SponsorRequests    *prometheus.CounterVec
	TipsTotal          prometheus.Counter
	WithdrawalsTotal   prometheus.Counter

	// Event pipeline metrics
	EventsPublished   *prometheus.CounterVec
	EventSinkErrors   *prometheus.CounterVec
	StreamSubscribers prometheus.Gauge

	// Latency metrics
	OperationLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	UptimeSeconds prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "creator_token_engine"
	}

	return &Metrics{
		// Curve metrics
		PurchasesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "curve",
			Name:      "purchases_total",
			Help:      "Total number of bonding curve purchases",
		}),
		SalesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "curve",
			Name:      "sales_total",
			Help:      "Total number of bonding curve sales",
		}),
		HostFeeClaims: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "curve",
			Name:      "host_fee_claims_total",
			Help:      "Total number of host fee claims",
		}),
		TradeValueWei: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "curve",
			Name:      "trade_value_wei_total",
			Help:      "Cumulative traded value in wei by direction",
		}, []string{"direction"}),
		FeesCollectedWei: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "curve",
			Name:      "fees_collected_wei_total",
			Help:      "Cumulative protocol fees in wei by source",
		}, []string{"source"}),

		// Membership metrics
		PassesMinted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "membership",
			Name:      "passes_minted_total",
			Help:      "Total number of membership passes minted",
		}),
		PassesBurned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "membership",
			Name:      "passes_burned_total",
			Help:      "Total number of membership passes burned",
		}),

		// Campaign metrics
		CampaignsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaign",
			Name:      "created_total",
			Help:      "Total number of campaigns created",
		}),
		CampaignsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaign",
			Name:      "completed_total",
			Help:      "Total number of campaigns completed by their host",
		}),
		CampaignsEnded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaign",
			Name:      "ended_total",
			Help:      "Total number of campaigns ended early without funding",
		}),
		SponsorRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaign",
			Name:      "sponsor_requests_total",
			Help:      "Total number of sponsorship requests by outcome",
		}, []string{"outcome"}),
		TipsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaign",
			Name:      "tips_total",
			Help:      "Total number of campaign tips",
		}),
		WithdrawalsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaign",
			Name:      "withdrawals_total",
			Help:      "Total number of host fund withdrawals",
		}),

		// Event pipeline metrics
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of market events published by type",
		}, []string{"event_type"}),
		EventSinkErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "sink_errors_total",
			Help:      "Total number of event sink publish errors by sink",
		}, []string{"sink"}),
		StreamSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "stream_subscribers",
			Help:      "Current number of WebSocket subscribers",
		}),

		// Latency metrics
		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_latency_seconds",
			Help:      "Engine operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
