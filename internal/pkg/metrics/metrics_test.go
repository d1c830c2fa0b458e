package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.WebhookEvent("checkout.session.completed", "applied")
		m.CheckoutSession("created")
		m.Referral()
		m.TierChange("sop", "stripe")
		m.Generation("niche", "ok", time.Second)
	})
}

func TestRecorders(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.WebhookEvent("checkout.session.completed", "applied")
	m.WebhookEvent("checkout.session.completed", "applied")
	m.Referral()
	m.Generation("niche", "rate_limited", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("checkout.session.completed", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReferralsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("niche", "rate_limited")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.GenerationDuration))
}

func TestMiddlewareAndHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/metrics", Handler(registry))

	_, err := app.Test(httptest.NewRequest("GET", "/ok", nil), -1)
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/ok", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/boom", "5xx")))

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "launchpad_http_requests_total")
}
