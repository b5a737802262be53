package dto

import (
	"time"

	"github.com/serviceflow/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description *string               `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// PatchTicketRequest payload. Pointer fields distinguish absent keys;
// assignee_id additionally distinguishes an explicit null (unassign),
// which handlers detect by inspecting the raw body.
type PatchTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Status      *domain.TicketStatus   `json:"status"`
	Priority    *domain.TicketPriority `json:"priority"`
	AssigneeID  *string                `json:"assignee_id"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	ResolutionSummary string                 `json:"resolution_summary"`
	TimeSpentHHMM     string                 `json:"time_spent_hhmm"`
	Priority          *domain.TicketPriority `json:"priority"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID                string                `json:"id"`
	Title             string                `json:"title"`
	Description       *string               `json:"description"`
	Status            domain.TicketStatus   `json:"status"`
	Priority          domain.TicketPriority `json:"priority"`
	CompanyID         string                `json:"company_id"`
	RequesterID       string                `json:"requester_id"`
	AssigneeID        *string               `json:"assignee_id"`
	ResolvedAt        *time.Time            `json:"resolved_at"`
	ResolutionSummary *string               `json:"resolution_summary"`
	TimeSpentMinutes  *int                  `json:"time_spent_minutes"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body     string `json:"body"`
	IsPublic *bool  `json:"is_public"`
}

// CommentResponse represents a ticket comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	Filename    string    `json:"filename"`
	ContentType *string   `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorklogResponse represents one tracked session.
type WorklogResponse struct {
	ID             string     `json:"id"`
	TicketID       string     `json:"ticket_id"`
	UserID         string     `json:"user_id"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at"`
	ElapsedMinutes int        `json:"elapsed_minutes"`
}

// WorklogListResponse bundles sessions with their running total.
type WorklogListResponse struct {
	Worklogs     []WorklogResponse `json:"worklogs"`
	TotalMinutes int               `json:"total_minutes"`
}
