package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopworks/storefront/internal/config"
	"github.com/shopworks/storefront/internal/domain"
	"github.com/shopworks/storefront/internal/middleware"
	"github.com/shopworks/storefront/internal/service"
)

var validate = validator.New()

// AuthHandler handles login/logout endpoints
type AuthHandler struct {
	authService *service.AuthService
	session     config.SessionConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, session config.SessionConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		session:     session,
	}
}

type loginRequest struct {
	Token string `json:"token" validate:"required"`
}

// Login handles POST /v1/auth/login.
// Verifies the Firebase ID token, establishes a server-side session with the
// resolved profile and sets both the session and identity cookies.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "token is required",
		})
	}

	result, err := h.authService.Login(c.UserContext(), req.Token)
	if err != nil {
		var invalid *service.ErrTokenInvalid
		switch {
		case errors.As(err, &invalid):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "no account for this identity",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "login failed",
			})
		}
	}

	expires := time.Now().Add(h.session.TTL)
	c.Cookie(&fiber.Cookie{
		Name:     h.session.CookieName,
		Value:    result.SessionID,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    req.Token,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	identity := domain.NewIdentity(result.User)
	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":    result.User.ID,
			"email": result.User.Email,
			"name":  result.User.DisplayName(),
			"role":  result.User.Role,
		},
		"claims": identity.Claims,
	})
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sessionID := c.Cookies(h.session.CookieName)
	if err := h.authService.Logout(c.UserContext(), sessionID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "logout failed",
		})
	}

	c.ClearCookie(h.session.CookieName, middleware.TokenCookieName)
	return c.JSON(fiber.Map{
		"message": "logged out",
	})
}
