package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HandleHealth reports 200 when every check passes and 503 otherwise.
func HandleHealth(checks map[string]HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := "ok"
		results := fiber.Map{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.Warnf("[Health] %s check failed: %v", name, err)
				results[name] = "down"
				status = "degraded"
				continue
			}
			results[name] = "up"
		}

		code := fiber.StatusOK
		if status != "ok" {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{"status": status, "checks": results})
	}
}
