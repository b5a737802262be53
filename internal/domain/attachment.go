package domain

import "time"

// Attachment is an append-only evidence record; the bytes live in object
// storage, only metadata and the storage key are persisted here.
type Attachment struct {
	ID          string
	TicketID    string
	Filename    string
	ContentType *string
	StorageKey  string
	SizeBytes   int64
	CreatedAt   time.Time
}
