package domain

import "time"

// Worklog is one contiguous time-tracking session against a ticket.
// A user has at most one worklog with ended_at=null across all tickets.
type Worklog struct {
	ID        string
	TicketID  string
	UserID    string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Elapsed returns the session duration, substituting now for a missing
// ended_at and clamping to zero so clock skew never yields negative time.
func (w *Worklog) Elapsed(now time.Time) time.Duration {
	end := now
	if w.EndedAt != nil {
		end = *w.EndedAt
	}
	d := end.Sub(w.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// TotalMinutes sums worklog durations and floors to whole minutes. The
// result is identical for a still-open session computed at now and for the
// same session after it is closed at now.
func TotalMinutes(worklogs []Worklog, now time.Time) int {
	var total time.Duration
	for i := range worklogs {
		total += worklogs[i].Elapsed(now)
	}
	return int(total.Milliseconds() / 60000)
}
