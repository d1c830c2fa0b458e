package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ManuelReschke/LaunchPad/app/controllers"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/metrics"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/middleware"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the wired controllers and middleware the routes dispatch to.
type Dependencies struct {
	Authenticator *middleware.Authenticator

	Session    *controllers.SessionController
	Billing    *controllers.BillingController
	Generation *controllers.GenerationController
	Account    *controllers.AccountController
	Assets     *controllers.AssetController
	Admin      *controllers.AdminController

	Metrics         *metrics.Metrics
	Registry        *prometheus.Registry
	MetricsUser     string
	MetricsPassword string

	HealthChecks map[string]HealthCheck

	// APIRequestsPerMinute bounds requests per client IP on /api; 0 uses the default.
	APIRequestsPerMinute int
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
	}
	app.Use(deps.Authenticator.UserContext)

	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
