// Package escalation decides whether a model reply needs a human.
//
// The decision is substring membership of the lower-cased reply in a
// configured phrase set. The system instruction sent to the model may
// mention some of these phrases, but only this list counts.
package escalation

import (
	"errors"
	"strings"
)

type Config struct {
	TriggerPhrases []string
	ContextWindow  int
}

type Detector struct {
	phrases []string
	window  int
}

func New(cfg Config) (*Detector, error) {
	if cfg.ContextWindow < 0 {
		return nil, errors.New("escalation: context window must be >= 0")
	}
	d := &Detector{window: cfg.ContextWindow}
	seen := make(map[string]struct{}, len(cfg.TriggerPhrases))
	for _, p := range cfg.TriggerPhrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		d.phrases = append(d.phrases, p)
	}
	if len(d.phrases) == 0 {
		return nil, errors.New("escalation: at least one trigger phrase is required")
	}
	return d, nil
}

// RequiresEscalation reports whether any trigger phrase occurs in reply, ignoring case.
func (d *Detector) RequiresEscalation(reply string) bool {
	_, ok := d.Match(reply)
	return ok
}

// Match returns the first trigger phrase found in reply.
func (d *Detector) Match(reply string) (string, bool) {
	lower := strings.ToLower(reply)
	for _, p := range d.phrases {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

// ContextWindow is the number of prior turns sent with each prompt.
func (d *Detector) ContextWindow() int {
	return d.window
}

// Phrases returns a copy of the normalized trigger phrases.
func (d *Detector) Phrases() []string {
	return append([]string(nil), d.phrases...)
}
