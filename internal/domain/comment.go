package domain

import "time"

// Comment is an append-only ticket note. Private comments (is_public=false)
// are visible to staff only.
type Comment struct {
	ID        string
	TicketID  string
	UserID    string
	Body      string
	IsPublic  bool
	CreatedAt time.Time
}
