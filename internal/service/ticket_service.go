package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/events"
	"github.com/serviceflow/helpdesk-service/internal/repository"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// TicketService coordinates the ticket lifecycle.
type TicketService struct {
	tickets    repository.TicketRepository
	guard      *access.Guard
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Guard      *access.Guard
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		guard:      deps.Guard,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description *string
	Priority    domain.TicketPriority
}

// TicketPatchInput describes a partial update. ClearAssignee distinguishes
// "assignee_id": null (unassign) from an absent field.
type TicketPatchInput struct {
	Title         *string
	Description   *string
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	AssigneeID    *string
	ClearAssignee bool
}

// TicketResolveInput carries resolution metadata.
type TicketResolveInput struct {
	ResolutionSummary string
	TimeSpentHHMM     string
	Priority          *domain.TicketPriority
}

// TicketListFilter describes caller-supplied listing filters; scoping is
// applied on top of these.
type TicketListFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssigneeID *string
	SearchTerm *string
	Limit      int
	Offset     int
}

var timeSpentPattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// ParseTimeSpent converts an HH:MM duration string to whole minutes.
// Hours are unbounded within the two-digit field, minutes must be 0-59.
func ParseTimeSpent(value string) (int, error) {
	if !timeSpentPattern.MatchString(value) {
		return 0, apperrors.NewValidationError("time_spent_hhmm must match HH:MM", map[string]any{"value": value})
	}
	parts := strings.SplitN(value, ":", 2)
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	if minutes > 59 {
		return 0, apperrors.NewValidationError("minutes must be between 0 and 59", map[string]any{"value": value})
	}
	return hours*60 + minutes, nil
}

// Create files a new ticket. The company is forced to the requester's
// company and the requester to the caller, never taken from the payload.
func (s *TicketService) Create(ctx context.Context, caller *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityNormal
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: input.Description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		CompanyID:   caller.CompanyID,
		RequesterID: caller.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketCreatedPayload{
			CompanyID: ticket.CompanyID,
			Priority:  ticket.Priority,
			Title:     ticket.Title,
		},
	})
	return ticket, nil
}

// Get fetches a ticket visible inside the caller's scope. Out-of-scope
// tickets read as NotFound so cross-tenant existence never leaks.
func (s *TicketService) Get(ctx context.Context, scope access.Scope, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !s.guard.CanViewTicket(scope, ticket) {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket, nil
}

// List returns tickets intersected with the caller's scope.
func (s *TicketService) List(ctx context.Context, scope access.Scope, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Scope:      toCompanyScope(scope),
		AssigneeID: filter.AssigneeID,
		Status:     filter.Status,
		Priority:   filter.Priority,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if scope.SelfOnly {
		self := scope.UserID
		repoFilter.RequesterID = &self
	}
	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Patch applies a partial update. Staff may retitle, move status (except
// to closed, which only Resolve may do), reprioritize and assign; a
// non-staff requester may only edit the description of their own open
// ticket. Concurrent writes are detected via compare-and-swap and fail
// Conflict.
func (s *TicketService) Patch(ctx context.Context, caller *domain.User, scope access.Scope, id string, input TicketPatchInput) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	expected := ticket.UpdatedAt

	if !caller.Role.IsStaff() {
		onlyDescription := input.Title == nil && input.Status == nil && input.Priority == nil &&
			input.AssigneeID == nil && !input.ClearAssignee
		if !onlyDescription || ticket.RequesterID != caller.ID || ticket.Status != domain.TicketStatusOpen {
			return nil, apperrors.NewForbidden("insufficient permissions")
		}
		ticket.Description = input.Description
		return s.applyUpdate(ctx, ticket, expected)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title is required", nil)
		}
		ticket.Title = title
	}
	if input.Description != nil {
		ticket.Description = input.Description
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}
	if input.Status != nil {
		next := *input.Status
		if !next.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": next})
		}
		if next == domain.TicketStatusClosed {
			return nil, apperrors.NewValidationError("tickets are closed via resolve", nil)
		}
		if !domain.CanTransition(ticket.Status, next) {
			return nil, apperrors.NewConflict("invalid status transition", map[string]any{
				"from": ticket.Status,
				"to":   next,
			})
		}
		ticket.Status = next
	}

	assigneeChanged := false
	if input.ClearAssignee {
		if !s.guard.CanAssign(caller) {
			return nil, apperrors.NewForbidden("insufficient permissions")
		}
		ticket.AssigneeID = nil
		assigneeChanged = true
	} else if input.AssigneeID != nil {
		if !s.guard.CanAssign(caller) {
			return nil, apperrors.NewForbidden("insufficient permissions")
		}
		ticket.AssigneeID = input.AssigneeID
		assigneeChanged = true
		// First assignment of an open ticket starts progress.
		if ticket.Status == domain.TicketStatusOpen {
			ticket.Status = domain.TicketStatusInProgress
		}
	}

	updated, err := s.applyUpdate(ctx, ticket, expected)
	if err != nil {
		return nil, err
	}
	if assigneeChanged {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: updated.ID,
			ActorID:  caller.ID,
			Payload:  events.TicketAssignedPayload{AssigneeID: updated.AssigneeID},
		})
	}
	return updated, nil
}

// Resolve closes a ticket, populating resolution metadata atomically with
// the transition. Only open or in_progress tickets are resolvable;
// re-resolving fails Conflict.
func (s *TicketService) Resolve(ctx context.Context, caller *domain.User, scope access.Scope, id string, input TicketResolveInput) (*domain.Ticket, error) {
	if !s.guard.CanResolve(caller) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}

	ticket, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !domain.Resolvable(ticket.Status) {
		return nil, apperrors.NewConflict("ticket is already closed", nil)
	}

	summary := strings.TrimSpace(input.ResolutionSummary)
	if summary == "" {
		return nil, apperrors.NewValidationError("resolution_summary is required", nil)
	}
	minutes, err := ParseTimeSpent(input.TimeSpentHHMM)
	if err != nil {
		return nil, err
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}

	expected := ticket.UpdatedAt
	now := time.Now()
	ticket.Status = domain.TicketStatusClosed
	ticket.ResolvedAt = &now
	ticket.ResolutionSummary = &summary
	ticket.TimeSpentMinutes = &minutes

	updated, err := s.applyUpdate(ctx, ticket, expected)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: updated.ID,
		ActorID:  caller.ID,
		Payload: events.TicketResolvedPayload{
			ResolutionSummary: summary,
			TimeSpentMinutes:  minutes,
		},
	})
	return updated, nil
}

// Delete hard-deletes a ticket and its comments, attachments and worklogs.
// It fails Conflict while any worklog on the ticket is still running.
func (s *TicketService) Delete(ctx context.Context, caller *domain.User, scope access.Scope, id string) error {
	if !s.guard.CanDeleteTicket(caller) {
		return apperrors.NewForbidden("insufficient permissions")
	}
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}

	err := s.tickets.DeleteCascade(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrActiveWorklog):
		return apperrors.NewConflict("ticket has an active worklog", nil)
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("ticket", nil)
	default:
		return apperrors.MapError(err)
	}
}

func (s *TicketService) applyUpdate(ctx context.Context, ticket *domain.Ticket, expected time.Time) (*domain.Ticket, error) {
	err := s.tickets.Update(ctx, ticket, expected)
	switch {
	case err == nil:
		return ticket, nil
	case errors.Is(err, repository.ErrStale):
		return nil, apperrors.NewConflict("ticket was modified concurrently, retry with fresh data", nil)
	case errors.Is(err, pgx.ErrNoRows):
		return nil, apperrors.NewNotFound("ticket", nil)
	default:
		return nil, apperrors.MapError(err)
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func toCompanyScope(scope access.Scope) repository.CompanyScope {
	return repository.CompanyScope{
		All:       scope.AllCompanies,
		CompanyID: scope.CompanyID,
	}
}
