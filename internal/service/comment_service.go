package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/events"
	"github.com/serviceflow/helpdesk-service/internal/repository"
	"github.com/serviceflow/helpdesk-service/internal/storage"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// CommentService maintains the append-only comment and attachment ledger.
type CommentService struct {
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	tickets     *TicketService
	store       storage.ObjectStore
	guard       *access.Guard
	dispatcher  events.Dispatcher
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	Tickets        *TicketService
	Store          storage.ObjectStore
	Guard          *access.Guard
	Dispatcher     events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		tickets:     deps.Tickets,
		store:       deps.Store,
		guard:       deps.Guard,
		dispatcher:  deps.Dispatcher,
	}
}

// Add appends a comment. The privacy flag of a non-staff author is
// ignored, not rejected: the comment persists as public regardless of
// what the client sent.
func (s *CommentService) Add(ctx context.Context, caller *domain.User, scope access.Scope, ticketID, body string, isPublic bool) (*domain.Comment, error) {
	if _, err := s.tickets.Get(ctx, scope, ticketID); err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body is required", nil)
	}
	if !s.guard.CanPostPrivateComment(caller) {
		isPublic = true
	}

	comment := &domain.Comment{
		TicketID: ticketID,
		UserID:   caller.ID,
		Body:     body,
		IsPublic: isPublic,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCommentAdded,
			TicketID:  ticketID,
			ActorID:   caller.ID,
			Timestamp: time.Now(),
			Payload: events.CommentAddedPayload{
				CommentID:   comment.ID,
				AuthorRole:  string(caller.Role),
				IsPublic:    comment.IsPublic,
				BodyPreview: preview(body, 120),
			},
		})
	}
	return comment, nil
}

// List returns a ticket's comments; non-staff callers see public ones only.
func (s *CommentService) List(ctx context.Context, caller *domain.User, scope access.Scope, ticketID string) ([]domain.Comment, error) {
	if _, err := s.tickets.Get(ctx, scope, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID, !caller.Role.IsStaff())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// AddAttachment streams an upload into object storage and records its
// metadata. Only the requester or staff may attach; oversize uploads fail
// ValidationError without buffering the payload.
func (s *CommentService) AddAttachment(ctx context.Context, caller *domain.User, scope access.Scope, ticketID, filename string, contentType *string, r io.Reader) (*domain.Attachment, error) {
	ticket, err := s.tickets.Get(ctx, scope, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.guard.CanAddAttachment(caller, ticket) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}

	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, apperrors.NewValidationError("filename is required", nil)
	}

	key := fmt.Sprintf("tickets/%s/%s-%s", ticketID, uuid.NewString()[:8], filename)
	written, err := s.store.Save(ctx, key, r)
	if err != nil {
		if err == storage.ErrTooLarge {
			return nil, apperrors.NewValidationError("file exceeds maximum allowed size", nil)
		}
		return nil, apperrors.MapError(err)
	}

	attachment := &domain.Attachment{
		TicketID:    ticketID,
		Filename:    filename,
		ContentType: contentType,
		StorageKey:  key,
		SizeBytes:   written,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// ListAttachments returns attachment records for a ticket.
func (s *CommentService) ListAttachments(ctx context.Context, scope access.Scope, ticketID string) ([]domain.Attachment, error) {
	if _, err := s.tickets.Get(ctx, scope, ticketID); err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}

// AttachmentURL resolves the public URL for a stored attachment.
func (s *CommentService) AttachmentURL(attachment *domain.Attachment) string {
	return s.store.URL(attachment.StorageKey)
}

func preview(body string, max int) string {
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
