package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/serviceflow/helpdesk-service/internal/api/dto"
	"github.com/serviceflow/helpdesk-service/internal/service"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// SystemHandler serves runtime email configuration endpoints.
type SystemHandler struct {
	service *service.SystemService
}

// NewSystemHandler constructs handler.
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{service: systemService}
}

// GetEmailConfig GET /system/email-config.
func (h *SystemHandler) GetEmailConfig(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	view, err := h.service.GetEmailConfig(c.Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// UpdateEmailConfig PUT /system/email-config.
func (h *SystemHandler) UpdateEmailConfig(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateEmailConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view, err := h.service.UpdateEmailConfig(c.Context(), user, service.EmailConfigUpdate{
		FromEmail: req.FromEmail,
		SMTPHost:  req.SMTPHost,
		SMTPPort:  req.SMTPPort,
		SMTPUser:  req.SMTPUser,
		SMTPPass:  req.SMTPPass,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// SendTestEmail POST /system/email-config/test.
func (h *SystemHandler) SendTestEmail(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.TestEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.SendTestEmail(c.Context(), user, req.To); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"sent": true, "to": req.To}})
}
