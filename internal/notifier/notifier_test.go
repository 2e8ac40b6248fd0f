package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/psds-microservice/apihub-assistant/internal/events"
	"github.com/psds-microservice/apihub-assistant/internal/model"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCreator struct {
	params []*openapi.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(p *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = append(f.params, p)
	if f.err != nil {
		return nil, f.err
	}
	return &openapi.ApiV2010Message{}, nil
}

type recordingNotifier struct {
	calls []string
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, ticketID, message string) error {
	r.calls = append(r.calls, ticketID+":"+message)
	return r.err
}

func TestTwilioWhatsApp(t *testing.T) {
	api := &fakeCreator{}
	n := newTwilio(api, "+1000", "+2000", "whatsapp")

	if err := n.Notify(context.Background(), "T1", "cannot log in"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	p := api.params[0]
	if *p.From != "whatsapp:+1000" || *p.To != "whatsapp:+2000" {
		t.Errorf("from/to = %s/%s", *p.From, *p.To)
	}
	if *p.Body != "Support Ticket #T1\ncannot log in" {
		t.Errorf("body = %q", *p.Body)
	}
}

func TestTwilioSMSAndError(t *testing.T) {
	api := &fakeCreator{err: errors.New("21211 invalid number")}
	n := newTwilio(api, "+1000", "+2000", "sms")

	err := n.Notify(context.Background(), "T2", "x")
	if err == nil || !strings.Contains(err.Error(), "invalid number") {
		t.Fatalf("Notify err = %v", err)
	}
	if *api.params[0].To != "+2000" {
		t.Errorf("sms recipient = %s", *api.params[0].To)
	}
}

func TestNewTwilioRequiresCredentials(t *testing.T) {
	if _, err := NewTwilio("", "tok", "+1", "+2", "sms"); err == nil {
		t.Error("expected error without account sid")
	}
	if _, err := NewTwilio("sid", "tok", "+1", "", "sms"); err == nil {
		t.Error("expected error without operator number")
	}
}

func TestWebhook(t *testing.T) {
	var got WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL).Notify(context.Background(), "T3", "refund"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got.TicketID != "T3" || got.Message != "refund" || got.Text != "Support Ticket #T3\nrefund" {
		t.Errorf("payload = %+v", got)
	}
}

func TestWebhookStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL).Notify(context.Background(), "T4", "x"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &recordingNotifier{}
	bad := &recordingNotifier{err: errors.New("down")}
	err := Multi{bad, ok}.Notify(context.Background(), "T5", "m")
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(ok.calls) != 1 {
		t.Error("healthy channel skipped after failure")
	}
}

func TestSubscriberRecordsWarnings(t *testing.T) {
	n := &recordingNotifier{err: errors.New("twilio: unreachable")}
	w := NewWarnings(10)
	h := Subscriber(n, w)

	h(context.Background(), events.TicketEvent{Type: events.TicketClosed, Ticket: model.Ticket{ID: "closed"}})
	if len(n.calls) != 0 {
		t.Fatal("closed events must not notify")
	}

	h(context.Background(), events.TicketEvent{Type: events.TicketCreated, Ticket: model.Ticket{ID: "T6", Query: "q"}})
	if len(n.calls) != 1 || n.calls[0] != "T6:q" {
		t.Fatalf("calls = %v", n.calls)
	}
	recent := w.Recent()
	if len(recent) != 1 || recent[0].TicketID != "T6" || !strings.Contains(recent[0].Error, "unreachable") {
		t.Errorf("warnings = %+v", recent)
	}
}

func TestWarningsBounded(t *testing.T) {
	w := NewWarnings(2)
	for _, id := range []string{"a", "b", "c"} {
		w.Add(Warning{TicketID: id})
	}
	recent := w.Recent()
	if len(recent) != 2 || recent[0].TicketID != "c" || recent[1].TicketID != "b" {
		t.Errorf("recent = %+v", recent)
	}
}
