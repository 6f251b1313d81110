package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopworks/storefront/internal/domain"
)

// Context key for the authenticated identity, shared by both auth adapters.
const identityKey = "identity"

// IdentityFrom extracts the request identity from the Fiber context.
// Returns the anonymous identity when no auth middleware attached one.
func IdentityFrom(c *fiber.Ctx) *domain.Identity {
	id, ok := c.Locals(identityKey).(*domain.Identity)
	if !ok || id == nil {
		return domain.Anonymous()
	}
	return id
}

func attachIdentity(c *fiber.Ctx, id *domain.Identity) {
	c.Locals(identityKey, id)
}

// RequireClaim gates a route on a boolean claim being present and true.
// Anonymous requests get 401, authenticated ones without the claim get 403.
func RequireClaim(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := IdentityFrom(c)
		if !id.Authenticated {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		if !id.HasTrue(key) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":          "insufficient permissions",
				"required_claim": key,
			})
		}
		return c.Next()
	}
}

// RequireBranchAccess gates a route on a BranchAccess claim matching the
// branch route parameter.
func RequireBranchAccess(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := IdentityFrom(c)
		if !id.Authenticated {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		branchID := c.Params(param)
		if branchID == "" || !id.HasBranchAccess(branchID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":  "no access to branch",
				"branch": branchID,
			})
		}
		return c.Next()
	}
}
