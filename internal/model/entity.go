package model

import "time"

type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// AnonymousContact is stored when a ticket is created without a requester contact.
const AnonymousContact = "anonymous"

// Ticket is one escalated support request. ID is assigned by the store.
type Ticket struct {
	ID        string       `json:"id"`
	Query     string       `json:"query"`
	Contact   string       `json:"contact"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty"`
}

// TicketView is a ticket decorated with its age at read time.
type TicketView struct {
	Ticket
	HoursOpen float64 `json:"hours_open"`
}

// Sentinels substituted for missing usage log fields.
const (
	UnknownAPI        = "unknown_api"
	UnknownUser       = "unknown_user"
	DefaultStatusCode = 200
)

// UsageLog is one recorded API invocation. Read-only to this service.
type UsageLog struct {
	API        string    `json:"api"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     string    `json:"user_id"`
	StatusCode int       `json:"status_code"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
