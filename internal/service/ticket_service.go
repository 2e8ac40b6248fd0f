package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/errs"
	"github.com/psds-microservice/apihub-assistant/internal/events"
	"github.com/psds-microservice/apihub-assistant/internal/model"
	"github.com/psds-microservice/apihub-assistant/internal/store"
)

// TicketServicer is the ticket lifecycle seen by the orchestrator and handlers.
type TicketServicer interface {
	Create(ctx context.Context, query, contact string) (string, error)
	CreateFromForm(ctx context.Context, form ManualTicket) (string, error)
	Get(ctx context.Context, id string) (*model.TicketView, error)
	ListOpen(ctx context.Context) ([]model.TicketView, error)
	Close(ctx context.Context, id string) (*model.Ticket, error)
}

// ManualTicket is the operator-facing "create ticket" form.
type ManualTicket struct {
	Subject string
	Details string
	Contact string
}

// Query joins the form fields into the ticket text.
func (f ManualTicket) Query() string {
	subject, details := strings.TrimSpace(f.Subject), strings.TrimSpace(f.Details)
	switch {
	case subject != "" && details != "":
		return subject + " - " + details
	case subject != "":
		return subject
	default:
		return details
	}
}

// TicketService is the only writer of ticket state. Side effects of state
// changes are published as events; it never talks to notification channels.
type TicketService struct {
	store  store.TicketStore
	events events.Publisher
	now    func() time.Time
}

func NewTicketService(s store.TicketStore, publisher events.Publisher) *TicketService {
	return &TicketService{store: s, events: publisher, now: time.Now}
}

// Create records a new open ticket. Identical requests are not deduplicated.
func (s *TicketService) Create(ctx context.Context, query, contact string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errs.ErrEmptyQuery
	}
	contact = strings.TrimSpace(contact)
	if contact == "" {
		contact = model.AnonymousContact
	}
	t := model.Ticket{
		Query:     query,
		Contact:   contact,
		Status:    model.TicketStatusOpen,
		CreatedAt: s.now().UTC(),
	}
	id, err := s.store.Insert(ctx, &t)
	if err != nil {
		return "", fmt.Errorf("create ticket: %w", err)
	}
	t.ID = id
	s.publish(ctx, events.TicketCreated, t)
	return id, nil
}

// CreateFromForm creates a ticket unless both subject and details are blank.
func (s *TicketService) CreateFromForm(ctx context.Context, form ManualTicket) (string, error) {
	query := form.Query()
	if query == "" {
		return "", errs.ErrEmptyTicketForm
	}
	return s.Create(ctx, query, form.Contact)
}

func (s *TicketService) Get(ctx context.Context, id string) (*model.TicketView, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(*t, s.now())
	return &v, nil
}

// ListOpen returns open tickets, longest-waiting first.
func (s *TicketService) ListOpen(ctx context.Context) ([]model.TicketView, error) {
	tickets, err := s.store.FindByStatus(ctx, model.TicketStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("list open tickets: %w", err)
	}
	now := s.now()
	views := make([]model.TicketView, len(tickets))
	for i, t := range tickets {
		views[i] = s.view(t, now)
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views, nil
}

// Close moves an open ticket to closed. Closing a closed ticket changes
// nothing and is not an error; an unknown id is errs.ErrTicketNotFound.
// ticket.closed is published only by the call that made the change.
func (s *TicketService) Close(ctx context.Context, id string) (*model.Ticket, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == model.TicketStatusClosed {
		return t, nil
	}
	at := s.now().UTC()
	changed, err := s.store.MarkClosed(ctx, id, at)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("close ticket %s: %w", id, err)
	}
	if !changed {
		// Closed concurrently; report the stored ticket.
		return s.store.Get(ctx, id)
	}
	t.Status = model.TicketStatusClosed
	t.ClosedAt = &at
	s.publish(ctx, events.TicketClosed, *t)
	return t, nil
}

func (s *TicketService) view(t model.Ticket, now time.Time) model.TicketView {
	return model.TicketView{Ticket: t, HoursOpen: HoursOpen(t.CreatedAt, now)}
}

func (s *TicketService) publish(ctx context.Context, typ events.Type, t model.Ticket) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, events.TicketEvent{Type: typ, Ticket: t, At: s.now().UTC()})
}

// HoursOpen is now-created in hours, rounded to two decimals.
func HoursOpen(created, now time.Time) float64 {
	return math.Round(now.Sub(created).Hours()*100) / 100
}
