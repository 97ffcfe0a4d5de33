// middleware/identity.go
package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// IdentityContextMiddleware extracts the caller identity forwarded by
// the Gateway. Activity identities and chain recipients are both keyed
// by this id, so secured routes refuse requests without it.
func IdentityContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identityID := c.Get("X-Identity-ID")
		if identityID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Identity-ID — request must come through gateway with auth context",
			})
		}

		c.Locals("identity_id", identityID)
		if guildID := c.Get("X-Guild-ID"); guildID != "" {
			c.Locals("guild_id", guildID)
		}

		return c.Next()
	}
}
