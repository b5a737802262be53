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

// CommentsHandler manages ticket comments and attachments.
type CommentsHandler struct {
	service *service.CommentService
	guard   *access.Guard
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService, guard *access.Guard) *CommentsHandler {
	return &CommentsHandler{service: commentService, guard: guard}
}

func (h *CommentsHandler) scope(c *fiber.Ctx, user *domain.User) access.Scope {
	return h.guard.ResolveScope(user, auth.CompanyOverride(c))
}

// Create POST /tickets/:id/comments.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	comment, err := h.service.Add(c.Context(), user, h.scope(c, user), c.Params("id"), req.Body, isPublic)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// List GET /tickets/:id/comments.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	comments, err := h.service.List(c.Context(), user, h.scope(c, user), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Upload POST /tickets/:id/attachments. Accepts multipart form data with a
// "file" part.
func (h *CommentsHandler) Upload(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("multipart file field required", nil)
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unable to read uploaded file", nil)
	}
	defer file.Close()

	var contentType *string
	if ct := strings.TrimSpace(header.Header.Get("Content-Type")); ct != "" {
		contentType = &ct
	}

	attachment, err := h.service.AddAttachment(c.Context(), user, h.scope(c, user), c.Params("id"), header.Filename, contentType, file)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.attachmentResponse(attachment)})
}

// ListAttachments GET /tickets/:id/attachments.
func (h *CommentsHandler) ListAttachments(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	attachments, err := h.service.ListAttachments(c.Context(), h.scope(c, user), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		items = append(items, h.attachmentResponse(&attachments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *CommentsHandler) attachmentResponse(attachment *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:          attachment.ID,
		TicketID:    attachment.TicketID,
		Filename:    attachment.Filename,
		ContentType: attachment.ContentType,
		SizeBytes:   attachment.SizeBytes,
		URL:         h.service.AttachmentURL(attachment),
		CreatedAt:   attachment.CreatedAt,
	}
}
