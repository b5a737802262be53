package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/email"
	"github.com/serviceflow/helpdesk-service/internal/events"
	"github.com/serviceflow/helpdesk-service/internal/repository"
)

// NotificationService turns domain events into outbound notifications.
// Delivery failures are logged and never surface to the request that
// published the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	tickets    repository.TicketRepository
	users      repository.UserRepository
	sender     email.Sender
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, tickets repository.TicketRepository, users repository.UserRepository, sender email.Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		tickets:    tickets,
		users:      users,
		sender:     sender,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketResolved)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAssigned", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

// handleTicketResolved mails the requester the resolution summary.
func (n *NotificationService) handleTicketResolved(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketResolved", zap.String("ticket_id", event.TicketID))

	payload, ok := event.Payload.(events.TicketResolvedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		n.logNotifySkip(event, err)
		return nil
	}
	requester, err := n.users.GetByID(ctx, ticket.RequesterID)
	if err != nil {
		n.logNotifySkip(event, err)
		return nil
	}

	subject := fmt.Sprintf("Ticket resolved: %s", ticket.Title)
	body := fmt.Sprintf("Hello %s,\n\nYour ticket %q has been resolved.\n\nResolution:\n%s\n", requester.DisplayName(), ticket.Title, payload.ResolutionSummary)
	n.deliver(ctx, event, requester.Email, subject, body)
	return nil
}

// handleCommentAdded mails the party on the other side of the thread:
// public staff comments go to the requester, end-user comments go to the
// assignee when one is set. Private comments never leave the system.
func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok || !payload.IsPublic {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		n.logNotifySkip(event, err)
		return nil
	}

	var recipient *domain.User
	if domain.Role(payload.AuthorRole).IsStaff() {
		if ticket.RequesterID != event.ActorID {
			recipient, err = n.users.GetByID(ctx, ticket.RequesterID)
		}
	} else if ticket.AssigneeID != nil && *ticket.AssigneeID != event.ActorID {
		recipient, err = n.users.GetByID(ctx, *ticket.AssigneeID)
	}
	if err != nil {
		n.logNotifySkip(event, err)
		return nil
	}
	if recipient == nil {
		return nil
	}

	subject := fmt.Sprintf("New comment on ticket: %s", ticket.Title)
	body := fmt.Sprintf("Hello %s,\n\nA new comment was posted on %q:\n\n%s\n", recipient.DisplayName(), ticket.Title, payload.BodyPreview)
	n.deliver(ctx, event, recipient.Email, subject, body)
	return nil
}

func (n *NotificationService) deliver(ctx context.Context, event events.Event, to, subject, body string) {
	if n.sender == nil || to == "" {
		return
	}
	if err := n.sender.Send(ctx, to, subject, body); err != nil {
		n.logger.Warn("email notification failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

func (n *NotificationService) logNotifySkip(event events.Event, err error) {
	n.logger.Debug("notification skipped",
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)),
		zap.Error(err))
}
