// Package memory keeps tickets and usage logs in process memory. It backs
// STORE_DRIVER=memory and the tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/psds-microservice/apihub-assistant/internal/errs"
	"github.com/psds-microservice/apihub-assistant/internal/model"
)

type TicketStore struct {
	mu      sync.RWMutex
	tickets map[string]model.Ticket
}

func NewTicketStore() *TicketStore {
	return &TicketStore{tickets: make(map[string]model.Ticket)}
}

func (s *TicketStore) Insert(_ context.Context, t *model.Ticket) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *t
	stored.ID = id
	s.tickets[id] = stored
	return id, nil
}

func (s *TicketStore) Get(_ context.Context, id string) (*model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, errs.ErrTicketNotFound
	}
	return &t, nil
}

func (s *TicketStore) FindByStatus(_ context.Context, status model.TicketStatus) ([]model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Ticket
	for _, t := range s.tickets {
		if t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *TicketStore) MarkClosed(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return false, errs.ErrTicketNotFound
	}
	if t.Status != model.TicketStatusOpen {
		return false, nil
	}
	closedAt := at
	t.Status = model.TicketStatusClosed
	t.ClosedAt = &closedAt
	s.tickets[id] = t
	return true, nil
}

// Len reports how many tickets are stored, whatever their status.
func (s *TicketStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets)
}

type UsageLogStore struct {
	mu   sync.RWMutex
	logs []model.UsageLog
}

func NewUsageLogStore(logs ...model.UsageLog) *UsageLogStore {
	return &UsageLogStore{logs: logs}
}

// Append records a usage log entry. Only local runs and tests write here.
func (s *UsageLogStore) Append(l model.UsageLog) {
	s.mu.Lock()
	s.logs = append(s.logs, l)
	s.mu.Unlock()
}

func (s *UsageLogStore) List(_ context.Context) ([]model.UsageLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UsageLog, len(s.logs))
	copy(out, s.logs)
	return out, nil
}
