package service

import (
	"context"
	"errors"
	"time"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/repository"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// WorklogService runs the exclusive time-tracking engine.
type WorklogService struct {
	worklogs repository.WorklogRepository
	tickets  *TicketService
}

// NewWorklogService constructs the service.
func NewWorklogService(worklogs repository.WorklogRepository, tickets *TicketService) *WorklogService {
	return &WorklogService{worklogs: worklogs, tickets: tickets}
}

// Start opens a session on the ticket. A caller with an open session on
// any ticket fails Conflict; the repository settles concurrent starts so
// exactly one wins.
func (s *WorklogService) Start(ctx context.Context, caller *domain.User, scope access.Scope, ticketID string) (*domain.Worklog, error) {
	if _, err := s.tickets.Get(ctx, scope, ticketID); err != nil {
		return nil, err
	}

	worklog, err := s.worklogs.Start(ctx, ticketID, caller.ID)
	if err != nil {
		if errors.Is(err, repository.ErrActiveSession) {
			return nil, apperrors.NewConflict("you already have an active worklog", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return worklog, nil
}

// Stop closes the caller's open session on this specific ticket. It never
// silently no-ops: absence of an open session fails Conflict.
func (s *WorklogService) Stop(ctx context.Context, caller *domain.User, scope access.Scope, ticketID string) (*domain.Worklog, error) {
	if _, err := s.tickets.Get(ctx, scope, ticketID); err != nil {
		return nil, err
	}

	worklog, err := s.worklogs.StopOpen(ctx, ticketID, caller.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSession) {
			return nil, apperrors.NewConflict("no active worklog for this ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return worklog, nil
}

// List returns worklogs for a ticket. Non-staff callers and mineOnly
// requests see only their own sessions.
func (s *WorklogService) List(ctx context.Context, caller *domain.User, scope access.Scope, ticketID string, mineOnly bool) ([]domain.Worklog, error) {
	if _, err := s.tickets.Get(ctx, scope, ticketID); err != nil {
		return nil, err
	}

	var userID *string
	if mineOnly || !caller.Role.IsStaff() {
		self := caller.ID
		userID = &self
	}
	worklogs, err := s.worklogs.ListByTicket(ctx, ticketID, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return worklogs, nil
}

// MinutesWorked totals elapsed minutes over the given worklogs as of now.
func (s *WorklogService) MinutesWorked(worklogs []domain.Worklog) int {
	return domain.TotalMinutes(worklogs, time.Now())
}
