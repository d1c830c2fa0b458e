package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/app/controllers"
	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/auth"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/billing"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/cache"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/config"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/database"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/export"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/generation"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/metrics"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/middleware"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/ratelimit"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/router"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/session"
)

// 1 MiB covers every tool payload and Stripe event.
const bodyLimit = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}
	if cfg.IsDev() {
		log.SetLevel(log.LevelDebug)
	}

	app, err := NewApplication(cfg)
	if err != nil {
		log.Fatalf("[Startup] %v", err)
	}
	log.Fatal(app.Listen(fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)))
}

func NewApplication(cfg *config.Config) (*fiber.App, error) {
	db, err := database.SetupDatabase(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	redisClient := cache.SetupCache(cfg.Cache)

	sessions, err := session.NewSessionStore(cfg.Cache, cfg.App.SessionTTL, !cfg.IsDev())
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	registry := metrics.NewRegistry()
	m := metrics.NewMetrics(registry)
	repos := repository.NewFactory(db).GetRepositories()

	// A nil verifier disables sign-in; the rest of the API keeps serving.
	var tokens auth.TokenVerifier
	verifier, err := auth.NewVerifierFromConfig(cfg.Firebase)
	switch {
	case errors.Is(err, auth.ErrNotConfigured):
		log.Warn("[Auth] FIREBASE_PROJECT_ID is not set, sign-in is disabled")
	case err != nil:
		return nil, fmt.Errorf("auth: %w", err)
	default:
		tokens = verifier
	}

	var provider billing.Provider
	if cfg.Stripe.SecretKey != "" {
		provider = billing.NewStripeProvider(cfg.Stripe.SecretKey)
	} else {
		log.Warn("[Billing] STRIPE_SECRET_KEY is not set, checkout is disabled")
	}
	billingRepo := billing.NewRepository(db)
	checkout := billing.NewCheckoutService(billingRepo, provider, cfg.Stripe, cfg.App.PublicURL, m)
	processor := billing.NewProcessor(billingRepo, provider, cfg.Stripe, cfg.TierUpdatePolicy, m)

	usage := newUsageStore(cfg, db, redisClient)
	gateway := generation.NewGateway(generation.NewOpenAIClient(cfg.LLM), usage, repos.Generation, cfg.LLM.Timeout, m)

	var uploader export.Uploader
	if cfg.Export.Enabled {
		client, err := export.NewClient(context.Background(), cfg.Export)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		uploader = client
	}
	exporter := export.NewService(repos.Generation, uploader)

	app := fiber.New(fiber.Config{
		BodyLimit: bodyLimit,
	})
	app.Use(recover.New(), logger.New())

	router.InstallRouter(app, router.Dependencies{
		Authenticator: middleware.NewAuthenticator(sessions, repos.Account, tokens),
		Session:       controllers.NewSessionController(sessions, repos.Account, tokens),
		Billing:       controllers.NewBillingController(checkout, processor),
		Generation:    controllers.NewGenerationController(gateway, repos.Generation, exporter),
		Account:       controllers.NewAccountController(usage, repos.Referral),
		Assets:        controllers.NewAssetController(repos.Asset),
		Admin:         controllers.NewAdminController(repos, m),

		Metrics:         m,
		Registry:        registry,
		MetricsUser:     cfg.Metrics.User,
		MetricsPassword: cfg.Metrics.Password,

		HealthChecks: map[string]router.HealthCheck{
			"database": func(ctx context.Context) error { return database.Ping(db) },
			"cache":    func(ctx context.Context) error { return cache.Ping(ctx, redisClient) },
		},
	})

	return app, nil
}

func newUsageStore(cfg *config.Config, db *gorm.DB, client *redis.Client) ratelimit.Store {
	if cfg.RateLimitBackend == config.RateLimitBackendRedis {
		log.Info("[RateLimit] Using Redis counters")
		return ratelimit.NewRedisStore(client)
	}
	log.Info("[RateLimit] Using database counters")
	return ratelimit.NewGormStore(db)
}
