package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/metrics"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/middleware"
)

// HttpRouter installs the non-API routes: health, metrics, checkout
// redirects and the admin API.
type HttpRouter struct {
	deps Dependencies
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", HandleHealth(h.deps.HealthChecks))

	if h.deps.Registry != nil {
		if h.deps.MetricsPassword == "" {
			log.Warn("[Router] METRICS_PASSWORD is not set, /metrics is disabled")
		} else {
			app.Get("/metrics", basicauth.New(basicauth.Config{
				Users: map[string]string{
					h.deps.MetricsUser: h.deps.MetricsPassword,
				},
			}), metrics.Handler(h.deps.Registry))
		}
	}

	app.Get("/checkout/success", h.deps.Billing.HandleCheckoutSuccess)
	app.Get("/checkout/cancel", h.deps.Billing.HandleCheckoutCancel)

	h.registerAdminRoutes(app)
}

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/api", middleware.RequireAdmin)
	adminGroup.Get("/accounts", h.deps.Admin.HandleAccounts)
	adminGroup.Put("/accounts/:id/tier", h.deps.Admin.HandleUpdateTier)
	adminGroup.Delete("/accounts/:id", h.deps.Admin.HandleDeleteAccount)
	adminGroup.Get("/referrals", h.deps.Admin.HandleReferrals)
}
