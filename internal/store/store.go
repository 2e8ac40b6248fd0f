// Package store defines the persistence contracts for tickets and usage logs.
// Identifiers are generated by the backing store, never by callers.
package store

import (
	"context"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/model"
)

// TicketStore persists tickets. Insert must be atomic: on error nothing is recorded.
type TicketStore interface {
	Insert(ctx context.Context, t *model.Ticket) (string, error)
	Get(ctx context.Context, id string) (*model.Ticket, error)
	FindByStatus(ctx context.Context, status model.TicketStatus) ([]model.Ticket, error)
	// MarkClosed closes the ticket only if it is still open and reports
	// whether this call made the change. An unknown id is errs.ErrTicketNotFound.
	MarkClosed(ctx context.Context, id string, at time.Time) (bool, error)
}

// UsageLogStore is the read side of the API usage log collection.
type UsageLogStore interface {
	List(ctx context.Context) ([]model.UsageLog, error)
}

// RawUsageLog carries usage log fields exactly as found in storage; any of
// them may be absent.
type RawUsageLog struct {
	API        *string
	Timestamp  *time.Time
	UserID     *string
	StatusCode *int
}

// Normalize substitutes sentinels for missing fields. A missing timestamp
// becomes readAt.
func (r RawUsageLog) Normalize(readAt time.Time) model.UsageLog {
	out := model.UsageLog{
		API:        model.UnknownAPI,
		Timestamp:  readAt.UTC(),
		UserID:     model.UnknownUser,
		StatusCode: model.DefaultStatusCode,
	}
	if r.API != nil && *r.API != "" {
		out.API = *r.API
	}
	if r.Timestamp != nil && !r.Timestamp.IsZero() {
		out.Timestamp = AsUTC(*r.Timestamp)
	}
	if r.UserID != nil && *r.UserID != "" {
		out.UserID = *r.UserID
	}
	if r.StatusCode != nil {
		out.StatusCode = *r.StatusCode
	}
	return out
}
