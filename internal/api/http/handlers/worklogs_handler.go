package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/api/dto"
	"github.com/serviceflow/helpdesk-service/internal/auth"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/service"
)

// WorklogsHandler manages time-tracking endpoints.
type WorklogsHandler struct {
	service *service.WorklogService
	guard   *access.Guard
}

// NewWorklogsHandler constructs handler.
func NewWorklogsHandler(worklogService *service.WorklogService, guard *access.Guard) *WorklogsHandler {
	return &WorklogsHandler{service: worklogService, guard: guard}
}

func (h *WorklogsHandler) scope(c *fiber.Ctx, user *domain.User) access.Scope {
	return h.guard.ResolveScope(user, auth.CompanyOverride(c))
}

// Start POST /tickets/:id/worklogs/start.
func (h *WorklogsHandler) Start(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	worklog, err := h.service.Start(c.Context(), user, h.scope(c, user), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": worklogResponse(worklog, time.Now())})
}

// Stop POST /tickets/:id/worklogs/stop.
func (h *WorklogsHandler) Stop(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	worklog, err := h.service.Stop(c.Context(), user, h.scope(c, user), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": worklogResponse(worklog, time.Now())})
}

// List GET /tickets/:id/worklogs.
func (h *WorklogsHandler) List(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	mineOnly := c.Query("mine") == "true"
	worklogs, err := h.service.List(c.Context(), user, h.scope(c, user), c.Params("id"), mineOnly)
	if err != nil {
		return err
	}

	now := time.Now()
	items := make([]dto.WorklogResponse, 0, len(worklogs))
	for i := range worklogs {
		items = append(items, worklogResponse(&worklogs[i], now))
	}
	return c.JSON(fiber.Map{"data": dto.WorklogListResponse{
		Worklogs:     items,
		TotalMinutes: domain.TotalMinutes(worklogs, now),
	}})
}

func worklogResponse(worklog *domain.Worklog, now time.Time) dto.WorklogResponse {
	return dto.WorklogResponse{
		ID:             worklog.ID,
		TicketID:       worklog.TicketID,
		UserID:         worklog.UserID,
		StartedAt:      worklog.StartedAt,
		EndedAt:        worklog.EndedAt,
		ElapsedMinutes: int(worklog.Elapsed(now).Milliseconds() / 60000),
	}
}
