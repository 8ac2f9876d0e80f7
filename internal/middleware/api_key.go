package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/edutrack/edutrack-api/internal/utils"
)

// APIKey rejects requests whose X-API-Key header does not match the
// configured key. When no key is configured the check is disabled.
func APIKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}

		provided := c.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid api key")
		}

		return c.Next()
	}
}
