package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/auth"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/web/handler"
)

// identityLocalsKey stores the verified identity summary in fiber.Locals.
const identityLocalsKey = "CurrentIdentity"

// New returns a Fiber middleware validating the bearer session token and
// storing the verified identity in fiber.Locals.
func New(core *handler.Core) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		identity, err := core.Auth.VerifyToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired session token")
		}

		c.Locals(identityLocalsKey, identity)

		return c.Next()
	}
}

// RequireCapability returns a middleware rejecting identities whose group
// permission maps do not grant action on resource. It must run after New.
func RequireCapability(core *handler.Core, resource, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := Identity(c)
		if identity == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		granted, err := core.Evaluator.HasCapability(identity.ID, resource, action)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "permission check failed")
		}

		if !granted {
			return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
		}

		return c.Next()
	}
}

// Identity returns the verified identity of the current request, or nil when
// the request did not pass the authentication middleware.
func Identity(c *fiber.Ctx) *auth.IdentitySummary {
	identity, ok := c.Locals(identityLocalsKey).(*auth.IdentitySummary)
	if !ok {
		return nil
	}

	return identity
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}
