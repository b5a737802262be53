package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/api/dto"
	"github.com/serviceflow/helpdesk-service/internal/auth"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/service"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// UsersHandler manages user administration endpoints.
type UsersHandler struct {
	service *service.UserService
	guard   *access.Guard
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService, guard *access.Guard) *UsersHandler {
	return &UsersHandler{service: userService, guard: guard}
}

func (h *UsersHandler) scope(c *fiber.Ctx, user *domain.User) access.Scope {
	return h.guard.ResolveScope(user, auth.CompanyOverride(c))
}

// Create POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	created, err := h.service.Create(c.Context(), user, service.UserCreateInput{
		Email:               req.Email,
		Password:            req.Password,
		FullName:            req.FullName,
		Role:                req.Role,
		CompanyID:           req.CompanyID,
		IsActive:            isActive,
		CanViewAllCompanies: req.CanViewAllCompanies,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userResponse(created)})
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	users, err := h.service.List(c.Context(), h.scope(c, user), parseUserQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Update PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	updated, err := h.service.Update(c.Context(), user, c.Params("id"), service.UserUpdateInput{
		Email:               req.Email,
		Password:            req.Password,
		FullName:            req.FullName,
		Role:                req.Role,
		CompanyID:           req.CompanyID,
		IsActive:            req.IsActive,
		CanViewAllCompanies: req.CanViewAllCompanies,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(updated)})
}

// Delete DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseUserQuery(c *fiber.Ctx) service.UserListFilter {
	filter := service.UserListFilter{}
	if v := c.Query("active"); v == "true" || v == "false" {
		active := v == "true"
		filter.Active = &active
	}
	if v := c.Query("role"); v != "" {
		role := domain.Role(v)
		filter.RoleFilter = &role
	}
	if v := strings.TrimSpace(c.Query("q")); v != "" {
		filter.SearchTerm = &v
	}
	filter.Limit = parseInt(c.Query("limit"), 50)
	filter.Offset = parseOffset(c.Query("offset"))
	return filter
}
