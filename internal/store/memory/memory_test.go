package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/errs"
	"github.com/psds-microservice/apihub-assistant/internal/model"
)

func TestTicketStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewTicketStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := s.Insert(ctx, &model.Ticket{Query: "q", Contact: "c", Status: model.TicketStatusOpen, CreatedAt: now})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id == "" {
		t.Fatal("Insert returned empty id")
	}

	open, _ := s.FindByStatus(ctx, model.TicketStatusOpen)
	if len(open) != 1 || open[0].ID != id {
		t.Fatalf("open = %+v", open)
	}

	changed, err := s.MarkClosed(ctx, id, now.Add(time.Hour))
	if err != nil || !changed {
		t.Fatalf("MarkClosed = %v, %v", changed, err)
	}
	if changed, err := s.MarkClosed(ctx, id, now.Add(2*time.Hour)); err != nil || changed {
		t.Errorf("second MarkClosed = %v, %v, want false, nil", changed, err)
	}
	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.TicketStatusClosed || got.ClosedAt == nil || !got.ClosedAt.Equal(now.Add(time.Hour)) {
		t.Errorf("ticket after close = %+v", got)
	}
	if open, _ := s.FindByStatus(ctx, model.TicketStatusOpen); len(open) != 0 {
		t.Errorf("open after close = %d", len(open))
	}
}

func TestTicketStoreUnknownID(t *testing.T) {
	s := NewTicketStore()
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, errs.ErrTicketNotFound) {
		t.Errorf("Get = %v", err)
	}
	if _, err := s.MarkClosed(context.Background(), "missing", time.Now()); !errors.Is(err, errs.ErrTicketNotFound) {
		t.Errorf("MarkClosed = %v", err)
	}
}

func TestUsageLogStoreReturnsCopy(t *testing.T) {
	s := NewUsageLogStore(model.UsageLog{API: "Image API"})
	logs, _ := s.List(context.Background())
	logs[0].API = "changed"
	again, _ := s.List(context.Background())
	if again[0].API != "Image API" {
		t.Errorf("List exposed internal slice")
	}
	s.Append(model.UsageLog{API: "Jokes API"})
	if logs, _ := s.List(context.Background()); len(logs) != 2 {
		t.Errorf("len = %d, want 2", len(logs))
	}
}
