package errs

import "errors"

var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrEmptyQuery      = errors.New("ticket query is empty")
	ErrEmptyTicketForm = errors.New("subject or details is required")
	ErrSessionNotFound = errors.New("chat session not found")
	ErrAPINotFound     = errors.New("api not found in catalog")
	ErrEmptyMessage    = errors.New("chat message is empty")
	ErrMissingContact  = errors.New("support contact address is not configured")
	// ErrEscalationFailed wraps a ticket write that failed during a chat turn.
	ErrEscalationFailed = errors.New("escalation ticket could not be recorded")
)
