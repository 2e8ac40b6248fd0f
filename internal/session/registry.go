package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/psds-microservice/apihub-assistant/internal/errs"
)

// Registry owns sessions addressed by handle for transports without a
// natural connection lifetime (plain HTTP).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	idle     time.Duration
}

func NewRegistry(idle time.Duration) *Registry {
	return &Registry{sessions: make(map[string]*Session), idle: idle}
}

func (r *Registry) Create(contact string) *Session {
	s := New(uuid.NewString(), contact)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return errs.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle since before now-idle and returns how many.
func (r *Registry) Sweep(now time.Time) int {
	if r.idle <= 0 {
		return 0
	}
	threshold := now.Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(threshold) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				log.Printf("session: removed %d idle sessions", n)
			}
		}
	}
}
