package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/middleware"
)

const (
	defaultAPIRequestsPerMinute = 120
	stripeWebhookPath           = "/api/stripe/webhook"
)

type ApiRouter struct {
	deps Dependencies
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	perMinute := h.deps.APIRequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultAPIRequestsPerMinute
	}
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		// Stripe retries from a small set of IPs; never throttle it.
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == stripeWebhookPath
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperror.Respond(c, apperror.New(apperror.KindRateLimited, "too many requests, slow down"))
		},
	}))

	api.Post("/stripe/webhook", h.deps.Billing.HandleStripeWebhook)

	api.Post("/auth/session", h.deps.Session.HandleCreateSession)
	api.Delete("/auth/session", h.deps.Session.HandleDeleteSession)

	api.Get("/courses", h.deps.Account.HandleCourses)
	api.Get("/courses/:slug", middleware.RequireAPISessionAuth, h.deps.Account.HandleCourse)

	authed := api.Group("", middleware.RequireAPISessionAuth)
	authed.Get("/me", h.deps.Account.HandleMe)
	authed.Post("/checkout", h.deps.Billing.HandleCreateCheckout)

	authed.Post("/generate/:tool", h.deps.Generation.HandleGenerate)
	authed.Get("/generations", h.deps.Generation.HandleListGenerations)
	authed.Post("/generations/:uuid/export", h.deps.Generation.HandleExportGeneration)

	authed.Get("/assets", h.deps.Assets.HandleListAssets)
	authed.Post("/assets", h.deps.Assets.HandleCreateAsset)
	authed.Get("/assets/:id", h.deps.Assets.HandleGetAsset)
	authed.Delete("/assets/:id", h.deps.Assets.HandleDeleteAsset)
}
