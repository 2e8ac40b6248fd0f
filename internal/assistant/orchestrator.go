// Package assistant runs one chat turn end to end: prompt the model, decide
// on escalation, open a ticket when needed and record the exchange.
package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/errs"
	"github.com/psds-microservice/apihub-assistant/internal/escalation"
	"github.com/psds-microservice/apihub-assistant/internal/llm"
	"github.com/psds-microservice/apihub-assistant/internal/model"
	"github.com/psds-microservice/apihub-assistant/internal/session"
)

// escalationWriteTimeout bounds the ticket write once escalation is decided.
const escalationWriteTimeout = 10 * time.Second

// State is a step of a turn. A turn always ends in Displayed.
type State string

const (
	StateReceived     State = "received"
	StateModelInvoked State = "model_invoked"
	StateReplied      State = "replied"
	StateFailed       State = "failed"
	StateEscalated    State = "escalated"
	StateDisplayed    State = "displayed"
)

// TicketCreator is the part of the ticket service a turn needs.
type TicketCreator interface {
	Create(ctx context.Context, query, contact string) (string, error)
}

type TurnResult struct {
	Reply         string  `json:"reply"`
	TicketID      string  `json:"ticket_id,omitempty"`
	Escalated     bool    `json:"escalated"`
	Failed        bool    `json:"failed"`
	MatchedPhrase string  `json:"matched_phrase,omitempty"`
	States        []State `json:"states"`
}

type Orchestrator struct {
	model       llm.Client
	detector    *escalation.Detector
	tickets     TicketCreator
	instruction string
}

func New(client llm.Client, detector *escalation.Detector, tickets TicketCreator) *Orchestrator {
	return &Orchestrator{
		model:       client,
		detector:    detector,
		tickets:     tickets,
		instruction: SystemInstruction,
	}
}

// HandleTurn processes one user message. The model is called exactly once;
// a model failure escalates unconditionally. A non-nil error means the
// escalation ticket could not be recorded; the returned result still holds
// the text shown to the user and the turn is still recorded in the session.
func (o *Orchestrator) HandleTurn(ctx context.Context, sess *session.Session, userText string) (TurnResult, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return TurnResult{}, errs.ErrEmptyMessage
	}
	unlock := sess.LockTurn()
	defer unlock()

	res := TurnResult{States: []State{StateReceived}}
	prompt := sess.BuildPrompt(o.instruction, userText, o.detector.ContextWindow())

	res.States = append(res.States, StateModelInvoked)
	reply, err := o.model.Complete(ctx, prompt)

	var turnErr error
	if err != nil {
		log.Printf("assistant: session %s: model call failed: %v", sess.ID, err)
		res.Failed = true
		res.States = append(res.States, StateFailed)
		id, cerr := o.escalate(ctx, sess, userText, &res)
		if cerr != nil {
			res.Reply = UnavailableMessage
			turnErr = cerr
		} else {
			res.Reply = fallback(id)
		}
	} else {
		res.States = append(res.States, StateReplied)
		res.Reply = reply
		if phrase, ok := o.detector.Match(reply); ok {
			res.MatchedPhrase = phrase
			id, cerr := o.escalate(ctx, sess, userText, &res)
			if cerr != nil {
				turnErr = cerr
			} else {
				res.Reply = annotate(reply, id)
			}
		}
	}

	sess.Append(model.RoleUser, userText)
	sess.Append(model.RoleAssistant, res.Reply)
	res.States = append(res.States, StateDisplayed)
	return res, turnErr
}

// escalate records the ticket even when ctx is already cancelled, for
// example after the client disconnected and the model call failed.
func (o *Orchestrator) escalate(ctx context.Context, sess *session.Session, query string, res *TurnResult) (string, error) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), escalationWriteTimeout)
	defer cancel()
	id, err := o.tickets.Create(wctx, query, sess.Contact)
	if err != nil {
		log.Printf("assistant: session %s: create ticket: %v", sess.ID, err)
		return "", fmt.Errorf("%w: %v", errs.ErrEscalationFailed, err)
	}
	res.Escalated = true
	res.TicketID = id
	res.States = append(res.States, StateEscalated)
	return id, nil
}
