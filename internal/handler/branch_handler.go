package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopworks/storefront/internal/domain"
)

// BranchHandler serves ERP branch endpoints. Access is gated by the
// BranchAccess claims in the server wiring.
type BranchHandler struct {
	users domain.UserRepository
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(users domain.UserRepository) *BranchHandler {
	return &BranchHandler{users: users}
}

// Summary handles GET /v1/erp/branches/:id/summary and lists the staff
// accounts with access to the branch.
func (h *BranchHandler) Summary(c *fiber.Ctx) error {
	branchID := c.Params("id")

	staff, err := h.users.GetByRole(c.UserContext(), domain.RoleStaff)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load branch staff",
		})
	}

	var assigned []fiber.Map
	for _, u := range staff {
		if u.ErpUser && u.BranchAccess[branchID] {
			assigned = append(assigned, fiber.Map{
				"id":    u.ID,
				"email": u.Email,
				"name":  u.DisplayName(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"branch": branchID,
		"staff":  assigned,
	})
}
