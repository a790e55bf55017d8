package middleware

import (
	"strings"

	"bgmi-arena/services"
	"bgmi-arena/utils"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

// TokenParser validates admin bearer tokens.
type TokenParser interface {
	ParseToken(token string) (*services.AdminClaims, error)
}

// AdminAuthMiddleware requires a valid admin Bearer token and stores the
// claims in c.Locals("admin").
func AdminAuthMiddleware(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return utils.JSONError(c, utils.Unauthorized("authorization token missing"))
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := parser.ParseToken(token)
		if err != nil {
			log.Warn("rejected admin token", "path", c.Path(), "ip", c.IP())
			return utils.JSONError(c, err)
		}

		c.Locals("admin", claims)
		return c.Next()
	}
}
