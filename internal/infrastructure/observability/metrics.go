package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Webhook pipeline metrics
	WebhookOutcomes  *prometheus.CounterVec
	WebhookDuration  *prometheus.HistogramVec
	CommitsTotal     prometheus.Counter
	DuplicateWebhooks prometheus.Counter

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	TokenRefreshes   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Worker metrics
	OutboxPublished  *prometheus.CounterVec
	InvitesExpired   prometheus.Counter
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		WebhookOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_outcomes_total",
				Help:      "Webhook deliveries by terminal pipeline outcome",
			},
			[]string{"outcome"},
		),
		WebhookDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "webhook_duration_seconds",
				Help:      "Webhook pipeline duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"outcome"},
		),
		CommitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscription_commits_total",
				Help:      "Successful subscription commits",
			},
		),
		DuplicateWebhooks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicate_webhooks_total",
				Help:      "Webhook deliveries resolved as already processed",
			},
		),
		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Outbound provider requests by operation and result",
			},
			[]string{"operation", "result"},
		),
		ProviderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Outbound provider request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		TokenRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_token_refreshes_total",
				Help:      "Provider access token refreshes by result",
			},
			[]string{"result"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		OutboxPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_published_total",
				Help:      "Outbox entries published to the event stream by status",
			},
			[]string{"status"},
		),
		InvitesExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invites_expired_total",
				Help:      "Pending invites marked expired by the sweeper",
			},
		),
	}

	// Register all collectors
	factory.MustRegister(
		m.WebhookOutcomes,
		m.WebhookDuration,
		m.CommitsTotal,
		m.DuplicateWebhooks,
		m.ProviderRequests,
		m.ProviderDuration,
		m.TokenRefreshes,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OutboxPublished,
		m.InvitesExpired,
	)

	return m
}
