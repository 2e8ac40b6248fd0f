// Package events decouples ticket state changes from their side effects.
// The ticket service publishes; notification and streaming subscribe.
package events

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/model"
)

type Type string

const (
	TicketCreated Type = "ticket.created"
	TicketClosed  Type = "ticket.closed"
)

type TicketEvent struct {
	Type   Type
	Ticket model.Ticket
	At     time.Time
}

// Publisher is all the ticket service knows about delivery.
type Publisher interface {
	Publish(ctx context.Context, e TicketEvent)
}

type Handler func(ctx context.Context, e TicketEvent)

// Bus delivers every event to its subscribers asynchronously, each with its
// own timeout detached from the publisher's context.
type Bus struct {
	mu      sync.RWMutex
	subs    map[Type][]Handler
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewBus(timeout time.Duration) *Bus {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Bus{subs: make(map[Type][]Handler), timeout: timeout}
}

func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	b.subs[t] = append(b.subs[t], h)
	b.mu.Unlock()
}

func (b *Bus) Publish(_ context.Context, e TicketEvent) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[e.Type]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("events: %s handler panicked: %v", e.Type, r)
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
			defer cancel()
			h(ctx, e)
		}(h)
	}
}

// Wait blocks until all in-flight deliveries finish.
func (b *Bus) Wait() {
	b.wg.Wait()
}
