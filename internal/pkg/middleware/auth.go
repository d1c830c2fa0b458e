package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/usercontext"
)

// RequireAPISessionAuth ensures an authenticated caller and returns JSON 401 otherwise.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return apperror.Respond(c, apperror.New(apperror.KindAuthRequired, "login required"))
	}
	return c.Next()
}

// RequireAdmin ensures an authenticated admin.
func RequireAdmin(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return apperror.Respond(c, apperror.New(apperror.KindAuthRequired, "login required"))
	}
	if !usercontext.IsAdmin(c) {
		return apperror.Respond(c, apperror.New(apperror.KindForbidden, "admin access required"))
	}
	return c.Next()
}
