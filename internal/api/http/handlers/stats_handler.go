package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/auth"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/service"
)

// StatsHandler serves dashboard and reporting endpoints.
type StatsHandler struct {
	service *service.StatsService
	guard   *access.Guard
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService, guard *access.Guard) *StatsHandler {
	return &StatsHandler{service: statsService, guard: guard}
}

func (h *StatsHandler) scope(c *fiber.Ctx, user *domain.User) access.Scope {
	return h.guard.ResolveScope(user, auth.CompanyOverride(c))
}

// Overview GET /dashboard/overview.
func (h *StatsHandler) Overview(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	overview, err := h.service.GetOverview(c.Context(), h.scope(c, user))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": overview})
}

// TicketStats GET /stats/tickets.
func (h *StatsHandler) TicketStats(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.GetTicketStats(c.Context(), user, h.scope(c, user), c.Query("period"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
