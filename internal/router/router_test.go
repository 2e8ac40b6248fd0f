package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/psds-microservice/apihub-assistant/internal/assistant"
	"github.com/psds-microservice/apihub-assistant/internal/catalog"
	"github.com/psds-microservice/apihub-assistant/internal/dashboard"
	"github.com/psds-microservice/apihub-assistant/internal/escalation"
	"github.com/psds-microservice/apihub-assistant/internal/handler"
	"github.com/psds-microservice/apihub-assistant/internal/model"
	"github.com/psds-microservice/apihub-assistant/internal/notifier"
	"github.com/psds-microservice/apihub-assistant/internal/service"
	"github.com/psds-microservice/apihub-assistant/internal/session"
	"github.com/psds-microservice/apihub-assistant/internal/store/memory"
	"github.com/psds-microservice/helpy/paths"
)

type scriptedModel struct {
	reply string
	err   error
}

func (m scriptedModel) Complete(context.Context, []model.Message) (string, error) {
	return m.reply, m.err
}

type testServer struct {
	http.Handler
	store    *memory.TicketStore
	sessions *session.Registry
}

func newTestServer(t *testing.T, m scriptedModel) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := memory.NewTicketStore()
	svc := service.NewTicketService(st, nil)
	det, err := escalation.New(escalation.Config{TriggerPhrases: []string{"contact support"}, ContextWindow: 5})
	if err != nil {
		t.Fatal(err)
	}
	reg := session.NewRegistry(time.Hour)
	dash := dashboard.NewService(memory.NewUsageLogStore(), svc, catalog.Default(), dashboard.NewPlaceholderProvider(7), notifier.NewWarnings(5))
	h := New(Handlers{
		Tickets:   handler.NewTicketHandler(svc),
		Chat:      handler.NewChatHandler(assistant.New(m, det, svc), reg),
		Dashboard: handler.NewDashboardHandler(dash),
	})
	return &testServer{Handler: h, store: st, sessions: reg}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, scriptedModel{reply: "hi"})
	if w := s.do(t, http.MethodGet, paths.PathHealth, nil); w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, paths.PathReady, nil); w.Code != http.StatusOK {
		t.Errorf("ready = %d", w.Code)
	}

	gin.SetMode(gin.TestMode)
	down := New(Handlers{Ready: func(context.Context) error { return errors.New("db down") }})
	w := httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, paths.PathReady, nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with failing check = %d", w.Code)
	}
}

func TestOpenAPIServed(t *testing.T) {
	s := newTestServer(t, scriptedModel{})
	w := s.do(t, http.MethodGet, paths.PathSwagger+"/openapi.json", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/api/v1/chat/ws") {
		t.Errorf("openapi = %d", w.Code)
	}
}

func TestTicketEndpoints(t *testing.T) {
	s := newTestServer(t, scriptedModel{})

	w := s.do(t, http.MethodPost, "/api/v1/tickets", map[string]string{"subject": " ", "details": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty form = %d", w.Code)
	}
	if s.store.Len() != 0 {
		t.Fatal("empty form created a ticket")
	}

	w = s.do(t, http.MethodPost, "/api/v1/tickets", map[string]string{"subject": "Billing", "details": "Charged twice", "contact": "+15550100"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body)
	}
	var created model.TicketView
	decode(t, w, &created)
	if created.Query != "Billing - Charged twice" || created.Status != model.TicketStatusOpen {
		t.Errorf("created = %+v", created)
	}

	w = s.do(t, http.MethodGet, "/api/v1/tickets", nil)
	var list struct {
		Tickets []model.TicketView `json:"tickets"`
		Total   int                `json:"total"`
	}
	decode(t, w, &list)
	if list.Total != 1 || list.Tickets[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}

	w = s.do(t, http.MethodPost, "/api/v1/dashboard/tickets/"+created.ID+"/close", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("close = %d", w.Code)
	}
	w = s.do(t, http.MethodPost, "/api/v1/tickets/"+created.ID+"/close", nil)
	if w.Code != http.StatusOK {
		t.Errorf("second close = %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/tickets/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("get missing = %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/v1/tickets/missing/close", nil); w.Code != http.StatusNotFound {
		t.Errorf("close missing = %d", w.Code)
	}
}

func TestChatSessionFlow(t *testing.T) {
	s := newTestServer(t, scriptedModel{reply: "Please contact support about refunds."})

	w := s.do(t, http.MethodPost, "/api/v1/chat/sessions", map[string]string{"contact": "dev@example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session = %d", w.Code)
	}
	var sess struct {
		ID string `json:"id"`
	}
	decode(t, w, &sess)

	w = s.do(t, http.MethodPost, "/api/v1/chat/sessions/"+sess.ID+"/messages", map[string]string{"message": "I want a refund"})
	if w.Code != http.StatusOK {
		t.Fatalf("message = %d %s", w.Code, w.Body)
	}
	var res assistant.TurnResult
	decode(t, w, &res)
	if !res.Escalated || res.TicketID == "" {
		t.Errorf("result = %+v", res)
	}
	if s.store.Len() != 1 {
		t.Errorf("tickets = %d", s.store.Len())
	}

	if w := s.do(t, http.MethodPost, "/api/v1/chat/sessions/"+sess.ID+"/messages", map[string]string{"message": "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("empty message = %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/v1/chat/sessions/"+sess.ID, nil)
	var got struct {
		Turns int `json:"turns"`
	}
	decode(t, w, &got)
	if got.Turns != 2 {
		t.Errorf("turns = %d, want 2", got.Turns)
	}

	if w := s.do(t, http.MethodDelete, "/api/v1/chat/sessions/"+sess.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/v1/chat/sessions/"+sess.ID+"/messages", map[string]string{"message": "hi"}); w.Code != http.StatusNotFound {
		t.Errorf("message after delete = %d", w.Code)
	}
}

func TestChatWebsocket(t *testing.T) {
	s := newTestServer(t, scriptedModel{err: errors.New("upstream timeout")})
	srv := httptest.NewServer(s)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var hello struct {
		SessionID string `json:"session_id"`
	}
	if err := conn.ReadJSON(&hello); err != nil || hello.SessionID == "" {
		t.Fatalf("hello = %+v, %v", hello, err)
	}
	if err := conn.WriteJSON(map[string]string{"message": "Why 500?"}); err != nil {
		t.Fatal(err)
	}
	var frame struct {
		Result *assistant.TurnResult `json:"result"`
		Error  string                `json:"error"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatal(err)
	}
	if frame.Error != "" || frame.Result == nil || !frame.Result.Failed || !frame.Result.Escalated {
		t.Errorf("frame = %+v", frame)
	}
	if s.store.Len() != 1 {
		t.Errorf("tickets = %d", s.store.Len())
	}
	if s.sessions.Len() != 0 {
		t.Error("websocket session leaked into the registry")
	}
}

func TestDashboardEndpoints(t *testing.T) {
	s := newTestServer(t, scriptedModel{})

	w := s.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary = %d", w.Code)
	}
	var sum dashboard.Summary
	decode(t, w, &sum)
	if !sum.Placeholder {
		t.Error("empty usage log should give a placeholder summary")
	}

	if w := s.do(t, http.MethodGet, "/api/v1/dashboard/apis/Image%20API", nil); w.Code != http.StatusOK {
		t.Errorf("api view = %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/dashboard/apis/Nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown api = %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/dashboard/tickets", nil); w.Code != http.StatusOK {
		t.Errorf("tickets = %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/dashboard/warnings", nil); w.Code != http.StatusOK {
		t.Errorf("warnings = %d", w.Code)
	}
}
