package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/LaunchPad/app/controllers"
	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/app/repository/repositorytest"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/auth"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/billing"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/export"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/generation"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/metrics"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/middleware"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/ratelimit"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/session"
)

type stubTokens map[string]*auth.Claims

func (s stubTokens) Verify(token string) (*auth.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

type stubCheckout struct{}

func (stubCheckout) CreateSession(ctx context.Context, account *models.Account, req billing.CheckoutRequest) (string, error) {
	return "https://checkout.stripe.test/" + req.PriceID, nil
}

type stubProcessor struct{ calls int }

func (s *stubProcessor) Process(ctx context.Context, payload []byte, signature string) (*billing.WebhookResult, error) {
	s.calls++
	return &billing.WebhookResult{EventID: "evt_1", Applied: true}, nil
}

type stubCompleter struct{}

func (stubCompleter) Complete(ctx context.Context, req generation.CompletionRequest) (string, error) {
	return `{"niches":[{"name":"AI Ops for Dental Clinics","description":"Automate patient intake.","targetAudience":"Independent dental practices","painPoints":["no-shows"],"pricePoint":"$3,000 setup","whyYou":"Ten years in clinic operations."}],"recommendation":"Start with dental clinics."}`, nil
}

type routerFixture struct {
	app       *fiber.App
	repos     *repository.Repositories
	tokens    stubTokens
	processor *stubProcessor
}

func newRouterFixture(t *testing.T, checks map[string]HealthCheck) *routerFixture {
	t.Helper()
	repos, _ := repositorytest.New()
	tokens := stubTokens{}
	store := session.NewStore(nil, time.Hour, false)
	registry := metrics.NewRegistry()
	m := metrics.NewMetrics(registry)
	usage := ratelimit.NewMemoryStore()
	processor := &stubProcessor{}

	gateway := generation.NewGateway(stubCompleter{}, usage, repos.Generation, time.Second, m)

	app := fiber.New()
	InstallRouter(app, Dependencies{
		Authenticator:        middleware.NewAuthenticator(store, repos.Account, tokens),
		Session:              controllers.NewSessionController(store, repos.Account, tokens),
		Billing:              controllers.NewBillingController(stubCheckout{}, processor),
		Generation:           controllers.NewGenerationController(gateway, repos.Generation, export.NewService(repos.Generation, nil)),
		Account:              controllers.NewAccountController(usage, repos.Referral),
		Assets:               controllers.NewAssetController(repos.Asset),
		Admin:                controllers.NewAdminController(repos, m),
		Metrics:              m,
		Registry:             registry,
		MetricsUser:          "admin",
		MetricsPassword:      "hunter2",
		HealthChecks:         checks,
		APIRequestsPerMinute: 10,
	})
	return &routerFixture{app: app, repos: repos, tokens: tokens, processor: processor}
}

// bearer registers an account reachable through the returned Authorization value.
func (f *routerFixture) bearer(t *testing.T, uid string, tier entitlements.Tier, role string) (string, *models.Account) {
	t.Helper()
	a, err := models.NewAccount(uid, uid+"@example.com", uid)
	require.NoError(t, err)
	a.Tier = tier
	a.Role = role
	require.NoError(t, f.repos.Account.Create(a))
	f.tokens[uid] = &auth.Claims{UID: uid, Email: a.Email, Name: uid, IssuedAt: time.Now()}
	return "Bearer " + uid, a
}

func (f *routerFixture) do(t *testing.T, method, path, authz, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if authz != "" {
		req.Header.Set(fiber.HeaderAuthorization, authz)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	f := newRouterFixture(t, map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
	})
	resp := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	f = newRouterFixture(t, map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
		"cache":    func(ctx context.Context) error { return errors.New("connection refused") },
	})
	resp = f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "down", body.Checks["cache"])
	assert.Equal(t, "up", body.Checks["database"])
}

func TestMetricsRequiresBasicAuth(t *testing.T) {
	f := newRouterFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("admin", "hunter2")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	f := newRouterFixture(t, nil)
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/me"},
		{http.MethodPost, "/api/checkout"},
		{http.MethodPost, "/api/generate/niche"},
		{http.MethodGet, "/api/generations"},
		{http.MethodGet, "/api/assets"},
		{http.MethodGet, "/admin/api/accounts"},
	} {
		resp := f.do(t, r.method, r.path, "", "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, r.path)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	f := newRouterFixture(t, nil)
	user, _ := f.bearer(t, "member", entitlements.TierLaunchpad, models.ROLE_USER)
	admin, _ := f.bearer(t, "boss", entitlements.TierFree, models.ROLE_ADMIN)

	resp := f.do(t, http.MethodGet, "/admin/api/accounts", user, "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/admin/api/accounts", admin, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCoursesArePublicButCourseDetailIsGated(t *testing.T) {
	f := newRouterFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/api/courses", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	sop, _ := f.bearer(t, "sop-buyer", entitlements.TierSOP, models.ROLE_USER)
	resp = f.do(t, http.MethodGet, "/api/courses/sop-playbook", sop, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/api/courses/launchpad-accelerator", sop, "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestGenerateThroughRouter(t *testing.T) {
	f := newRouterFixture(t, nil)
	lp, acct := f.bearer(t, "builder", entitlements.TierLaunchpad, models.ROLE_USER)

	payload := `{"experience":"` + strings.Repeat("x", 200) + `"}`
	resp := f.do(t, http.MethodPost, "/api/generate/niche", lp, payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Tool   string `json:"tool"`
		UUID   string `json:"uuid"`
		Result struct {
			Niches         []map[string]interface{} `json:"niches"`
			Recommendation string                   `json:"recommendation"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "niche", body.Tool)
	assert.Len(t, body.Result.Niches, 1)
	assert.Equal(t, "Start with dental clinics.", body.Result.Recommendation)

	records, err := f.repos.Generation.ListByAccount(acct.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, records[0].UUID, body.UUID)

	resp = f.do(t, http.MethodPost, "/api/generate/unknown", lp, payload)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStripeWebhookIsNotThrottled(t *testing.T) {
	f := newRouterFixture(t, nil)
	for i := 0; i < 12; i++ {
		resp := f.do(t, http.MethodPost, "/api/stripe/webhook", "", `{"id":"evt_`+strconv.Itoa(i)+`"}`)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 12, f.processor.calls)

	var last int
	for i := 0; i < 12; i++ {
		last = f.do(t, http.MethodGet, "/api/courses", "", "").StatusCode
	}
	assert.Equal(t, fiber.StatusTooManyRequests, last)
}

func TestCheckoutRedirects(t *testing.T) {
	f := newRouterFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/checkout/success?session_id=cs_test_1", "", "")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp = f.do(t, http.MethodGet, "/checkout/cancel", "", "")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/pricing", resp.Header.Get(fiber.HeaderLocation))
}
