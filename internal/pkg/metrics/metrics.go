package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	WebhookEventsTotal    *prometheus.CounterVec
	CheckoutSessionsTotal *prometheus.CounterVec
	ReferralsTotal        prometheus.Counter
	TierChangesTotal      *prometheus.CounterVec

	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launchpad_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_webhook_events_total",
				Help: "Verified payment webhook events by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		CheckoutSessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_checkout_sessions_total",
				Help: "Checkout session creation attempts by outcome",
			},
			[]string{"outcome"},
		),
		ReferralsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "launchpad_referrals_total",
				Help: "Referral commissions recorded",
			},
		),
		TierChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_tier_changes_total",
				Help: "Account tier updates by resulting tier and source (stripe, admin)",
			},
			[]string{"tier", "source"},
		),
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_generations_total",
				Help: "AI generation requests by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		GenerationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launchpad_generation_duration_seconds",
				Help:    "Upstream model latency in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"tool"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.WebhookEventsTotal,
		m.CheckoutSessionsTotal,
		m.ReferralsTotal,
		m.TierChangesTotal,
		m.GenerationsTotal,
		m.GenerationDuration,
	)

	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func (m *Metrics) WebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) CheckoutSession(outcome string) {
	if m == nil {
		return
	}
	m.CheckoutSessionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Referral() {
	if m == nil {
		return
	}
	m.ReferralsTotal.Inc()
}

func (m *Metrics) TierChange(tier, source string) {
	if m == nil {
		return
	}
	m.TierChangesTotal.WithLabelValues(tier, source).Inc()
}

func (m *Metrics) Generation(tool, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(tool, outcome).Inc()
	if elapsed > 0 {
		m.GenerationDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
	}
}

// Middleware records request counts and latency keyed by the matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Method(), route, statusLabel(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Handler exposes registry in the Prometheus text format.
func Handler(registry *prometheus.Registry) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
