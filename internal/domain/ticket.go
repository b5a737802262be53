package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether the status is a known variant.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether the priority is a known variant.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// allowedTransitions maps each status to the statuses reachable from it
// via a direct patch. Closing is absent on purpose: closed is reachable
// only through Resolve, which populates the resolution fields atomically.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress},
	TicketStatusInProgress: {TicketStatusOpen},
	TicketStatusClosed:     {},
}

// CanTransition reports whether a patch may move a ticket between statuses.
func CanTransition(current, next TicketStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Resolvable reports whether a ticket in the given status may be resolved.
func Resolvable(status TicketStatus) bool {
	return status == TicketStatusOpen || status == TicketStatusInProgress
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                string
	Title             string
	Description       *string
	Status            TicketStatus
	Priority          TicketPriority
	CompanyID         string
	RequesterID       string
	AssigneeID        *string
	ResolvedAt        *time.Time
	ResolutionSummary *string
	TimeSpentMinutes  *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
