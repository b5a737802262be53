package repository

import "errors"

// CompanyScope narrows queries to the companies a caller may see. All=true
// means no company filter (superadmin without an override).
type CompanyScope struct {
	All       bool
	CompanyID string
}

// Sentinel errors surfaced by repositories for state the SQL alone decides.
var (
	// ErrStale is returned when an optimistic update finds the row changed
	// since it was read.
	ErrStale = errors.New("row changed since read")
	// ErrActiveSession is returned when a worklog insert loses to an
	// existing open session for the same user.
	ErrActiveSession = errors.New("user already has an active worklog")
	// ErrNoActiveSession is returned when a stop finds no open worklog on
	// the target ticket.
	ErrNoActiveSession = errors.New("no active worklog on this ticket")
	// ErrActiveWorklog blocks ticket deletion while a session is running.
	ErrActiveWorklog = errors.New("ticket has an active worklog")
)
