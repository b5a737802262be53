package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/serviceflow/helpdesk-service/internal/api/dto"
	"github.com/serviceflow/helpdesk-service/internal/service"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// CompaniesHandler manages tenant administration endpoints.
type CompaniesHandler struct {
	service *service.CompanyService
}

// NewCompaniesHandler constructs handler.
func NewCompaniesHandler(companyService *service.CompanyService) *CompaniesHandler {
	return &CompaniesHandler{service: companyService}
}

// List GET /companies.
func (h *CompaniesHandler) List(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	companies, err := h.service.List(c.Context(), user)
	if err != nil {
		return err
	}
	items := make([]dto.CompanyResponse, 0, len(companies))
	for i := range companies {
		items = append(items, companyResponse(&companies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /companies.
func (h *CompaniesHandler) Create(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	company, err := h.service.Create(c.Context(), user, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": companyResponse(company)})
}

// Update PATCH /companies/:id.
func (h *CompaniesHandler) Update(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	company, err := h.service.Update(c.Context(), user, c.Params("id"), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": companyResponse(company)})
}

// Delete DELETE /companies/:id.
func (h *CompaniesHandler) Delete(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
