package handler

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/shopworks/storefront/internal/domain"
	"github.com/shopworks/storefront/internal/middleware"
)

// ProfileHandler serves the authenticated user's own profile
type ProfileHandler struct {
	avatars         domain.AvatarRepository
	maxUploadSizeMB int64
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(avatars domain.AvatarRepository, maxUploadSizeMB int64) *ProfileHandler {
	return &ProfileHandler{
		avatars:         avatars,
		maxUploadSizeMB: maxUploadSizeMB,
	}
}

// Me handles GET /v1/me and echoes the resolved identity with its claims.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	id := middleware.IdentityFrom(c)
	if !id.Authenticated {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	email, _ := id.Get(domain.ClaimEmail)
	name, _ := id.Get(domain.ClaimName)
	role, _ := id.Get(domain.ClaimAccountRole)

	return c.JSON(fiber.Map{
		"subject": id.Subject(),
		"email":   email,
		"name":    name,
		"role":    role,
		"claims":  id.Claims,
	})
}

// UploadAvatar handles POST /v1/me/avatar (multipart field "avatar")
func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	id := middleware.IdentityFrom(c)
	if !id.Authenticated {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	if h.avatars == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "avatar storage is not configured",
		})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "avatar file is required",
		})
	}

	if fileHeader.Size > h.maxUploadSizeMB*1024*1024 {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("avatar exceeds %dMB limit", h.maxUploadSizeMB),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read upload",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read upload",
		})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	filename := fmt.Sprintf("avatars/%s", id.Subject())
	url, err := h.avatars.Upload(c.UserContext(), data, filename, contentType)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to store avatar",
		})
	}

	return c.JSON(fiber.Map{
		"url": url,
	})
}
