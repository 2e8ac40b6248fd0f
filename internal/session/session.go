// Package session holds per-user conversation history and builds the bounded
// context window sent to the language model.
package session

import (
	"sync"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/model"
)

// Session is one interactive conversation. History is append-only and
// unbounded; only the prompt is windowed. Appends are serialized so
// concurrent turns cannot reorder history.
type Session struct {
	ID        string
	Contact   string
	CreatedAt time.Time

	mu       sync.Mutex
	turnMu   sync.Mutex
	history  []model.Message
	lastSeen time.Time
}

// New starts a session. contact identifies the requester on escalated
// tickets and may be empty.
func New(id, contact string) *Session {
	now := time.Now()
	return &Session{ID: id, Contact: contact, CreatedAt: now, lastSeen: now}
}

// Append adds one turn to the history and marks the session active.
func (s *Session) Append(role model.Role, content string) {
	s.mu.Lock()
	s.history = append(s.history, model.Message{Role: role, Content: content})
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// History returns a copy of every turn, oldest first.
func (s *Session) History() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len reports how many turns are in the history.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// BuildPrompt returns the system instruction, at most window most recent
// prior turns (oldest to newest) and the new user message last.
func (s *Session) BuildPrompt(systemInstruction, newUserMessage string, window int) []model.Message {
	s.mu.Lock()
	prior := s.history
	if window < 0 {
		window = 0
	}
	if len(prior) > window {
		prior = prior[len(prior)-window:]
	}
	out := make([]model.Message, 0, len(prior)+2)
	out = append(out, model.Message{Role: model.RoleSystem, Content: systemInstruction})
	out = append(out, prior...)
	s.mu.Unlock()
	return append(out, model.Message{Role: model.RoleUser, Content: newUserMessage})
}

// LockTurn serializes whole turns on this session. The caller must call the
// returned unlock function.
func (s *Session) LockTurn() (unlock func()) {
	s.turnMu.Lock()
	return s.turnMu.Unlock
}

// LastSeen is when the session was created or last appended to.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}
