package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/api/dto"
	"github.com/serviceflow/helpdesk-service/internal/auth"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/service"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
	guard   *access.Guard
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, guard *access.Guard) *TicketsHandler {
	return &TicketsHandler{service: ticketService, guard: guard}
}

func (h *TicketsHandler) scope(c *fiber.Ctx, user *domain.User) access.Scope {
	return h.guard.ResolveScope(user, auth.CompanyOverride(c))
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.Context(), user, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.Context(), h.scope(c, user), parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.Context(), h.scope(c, user), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Patch PATCH /tickets/:id.
func (h *TicketsHandler) Patch(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.PatchTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketPatchInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
	}
	// "assignee_id": null means unassign, which BodyParser cannot tell
	// apart from an absent key.
	if req.AssigneeID == nil && rawBodyHasKey(c.Body(), "assignee_id") {
		input.ClearAssignee = true
	}

	ticket, err := h.service.Patch(c.Context(), user, h.scope(c, user), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Resolve POST /tickets/:id/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ResolveTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Resolve(c.Context(), user, h.scope(c, user), c.Params("id"), service.TicketResolveInput{
		ResolutionSummary: req.ResolutionSummary,
		TimeSpentHHMM:     req.TimeSpentHHMM,
		Priority:          req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), user, h.scope(c, user), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := domain.TicketPriority(v)
		filter.Priority = &priority
	}
	if v := c.Query("assignee_id"); v != "" {
		filter.AssigneeID = &v
	}
	if v := strings.TrimSpace(c.Query("q")); v != "" {
		filter.SearchTerm = &v
	}
	filter.Limit = parseInt(c.Query("limit"), 50)
	filter.Offset = parseOffset(c.Query("offset"))
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseOffset(val string) int {
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func rawBodyHasKey(body []byte, key string) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return false
	}
	_, ok := raw[key]
	return ok
}
