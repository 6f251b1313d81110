package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopworks/storefront/internal/domain"
	"golang.org/x/sync/errgroup"
)

// AdminHandler serves the admin-panel user management endpoints. Routes using
// it are gated by claim policies in the server wiring.
type AdminHandler struct {
	users domain.UserRepository
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users domain.UserRepository) *AdminHandler {
	return &AdminHandler{users: users}
}

// ListUsers handles GET /v1/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	var (
		users []*domain.UserAccount
		total int64
	)

	g, gCtx := errgroup.WithContext(c.UserContext())
	g.Go(func() error {
		var err error
		users, err = h.users.GetAll(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = h.users.CountAll(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list users",
		})
	}

	return c.JSON(fiber.Map{
		"total": total,
		"users": users,
	})
}

// GetUser handles GET /v1/admin/users/:id
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.users.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get user",
		})
	}
	return c.JSON(user)
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin manager staff customer"`
}

// UpdateUserRole handles PUT /v1/admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	var req updateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "role must be one of owner, admin, manager, staff, customer",
		})
	}

	if err := h.users.UpdateRole(c.UserContext(), c.Params("id"), domain.Role(req.Role)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update role",
		})
	}

	return c.JSON(fiber.Map{
		"message": "role updated",
	})
}
