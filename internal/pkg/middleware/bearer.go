package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
