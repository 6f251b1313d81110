package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopworks/storefront/internal/domain"
	"go.uber.org/zap"
)

// SessionAuth creates a Fiber middleware that resolves the request identity
// from a previously established session. When the session carries a cached
// user profile, the derived claims are attached to the request; otherwise the
// request stays unauthenticated. The middleware never blocks the request.
func SessionAuth(store domain.SessionStore, cookieName string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(cookieName)
		if sessionID == "" {
			return c.Next()
		}

		user, err := store.GetUserProfile(c.UserContext(), sessionID)
		if err != nil {
			if err != domain.ErrNotFound {
				log.Warn("session profile lookup failed",
					zap.Error(err),
				)
			}
			return c.Next()
		}

		identity := domain.NewIdentity(user)
		attachIdentity(c, identity)

		log.Debug("identity resolved from session",
			zap.String("email", user.Email),
			zap.String("role", string(user.Role)),
			zap.Int("claims", len(identity.Claims)),
		)

		return c.Next()
	}
}
