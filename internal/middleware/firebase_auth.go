package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"

	firebase "firebase.google.com/go/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/shopworks/storefront/internal/domain"
	"github.com/shopworks/storefront/internal/service"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// TokenCookieName is the cookie carrying the Firebase ID token.
const TokenCookieName = "firebaseToken"

// FirebaseCookieAuth creates a Fiber middleware that resolves the request
// identity from the firebaseToken cookie. Resolution is best-effort:
//   - verification failure discards the cookie so the next request is anonymous
//   - a verified token without a matching account keeps the cookie (the token
//     may match an account provisioned later)
//   - any other error is logged and swallowed
//
// The request is always forwarded; downstream policies decide on the claims.
func FirebaseCookieAuth(authService *service.AuthService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		idToken := c.Cookies(TokenCookieName)
		if idToken == "" {
			return c.Next()
		}

		// Session middleware may already have resolved the identity.
		if IdentityFrom(c).Authenticated {
			return c.Next()
		}

		user, err := authService.Resolve(c.UserContext(), idToken)
		if err != nil {
			var invalid *service.ErrTokenInvalid
			switch {
			case errors.As(err, &invalid):
				c.ClearCookie(TokenCookieName)
				log.Info("discarding invalid identity token", zap.Error(err))
			case errors.Is(err, domain.ErrNotFound):
				log.Info("verified token has no matching account")
			default:
				log.Warn("identity resolution failed", zap.Error(err))
			}
			return c.Next()
		}

		identity := domain.NewIdentity(user)
		attachIdentity(c, identity)

		log.Debug("identity resolved from token",
			zap.String("email", user.Email),
			zap.String("role", string(user.Role)),
			zap.Int("claims", len(identity.Claims)),
		)

		return c.Next()
	}
}

// InitFirebase initializes Firebase Admin SDK with environment variables
func InitFirebase(projectID, privateKeyB64, clientEmail string) (*firebase.App, error) {
	// Decode base64 private key
	privateKey, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return nil, err
	}

	credentialsJSON := map[string]interface{}{
		"type":         "service_account",
		"project_id":   projectID,
		"private_key":  string(privateKey),
		"client_email": clientEmail,
	}

	app, err := firebase.NewApp(context.Background(), nil, option.WithCredentialsJSON(mustMarshalJSON(credentialsJSON)))
	if err != nil {
		return nil, err
	}

	return app, nil
}

// mustMarshalJSON is a helper to marshal JSON or panic
func mustMarshalJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
