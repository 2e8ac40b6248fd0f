// Package notifier alerts a human operator when a ticket is created.
// Delivery is best effort: failures become warnings and never touch the ticket.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/events"
)

type Notifier interface {
	Notify(ctx context.Context, ticketID, message string) error
}

// Body is the operator-facing text for a ticket notification.
func Body(ticketID, message string) string {
	return fmt.Sprintf("Support Ticket #%s\n%s", ticketID, message)
}

// Multi fans a notification out to every channel and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ticketID, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ticketID, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log only writes the notification to the process log. Used when no channel is configured.
type Log struct{}

func (Log) Notify(_ context.Context, ticketID, message string) error {
	log.Printf("notifier: %q", Body(ticketID, message))
	return nil
}

type Warning struct {
	TicketID string    `json:"ticket_id"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`
}

// Warnings keeps the most recent delivery failures for the operator dashboard.
type Warnings struct {
	mu    sync.Mutex
	items []Warning
	limit int
}

func NewWarnings(limit int) *Warnings {
	if limit <= 0 {
		limit = 50
	}
	return &Warnings{limit: limit}
}

func (w *Warnings) Add(item Warning) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, item)
	if over := len(w.items) - w.limit; over > 0 {
		w.items = append([]Warning(nil), w.items[over:]...)
	}
}

// Recent returns warnings newest first.
func (w *Warnings) Recent() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Warning, len(w.items))
	for i, item := range w.items {
		out[len(w.items)-1-i] = item
	}
	return out
}

// Subscriber returns an events.Handler that notifies about created tickets.
func Subscriber(n Notifier, warnings *Warnings) events.Handler {
	return func(ctx context.Context, e events.TicketEvent) {
		if e.Type != events.TicketCreated {
			return
		}
		if err := n.Notify(ctx, e.Ticket.ID, e.Ticket.Query); err != nil {
			log.Printf("notifier: ticket %s: %v", e.Ticket.ID, err)
			if warnings != nil {
				warnings.Add(Warning{TicketID: e.Ticket.ID, Error: err.Error(), At: time.Now().UTC()})
			}
		}
	}
}
