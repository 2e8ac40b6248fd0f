package postgres

import (
	"testing"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/model"
)

func TestTicketRowToModel(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.FixedZone("x", 3*3600))
	closed := created.Add(2 * time.Hour)
	row := ticketRow{ID: 42, Query: "rate limit?", Contact: "a@b.c", Status: "closed", CreatedAt: created, ClosedAt: &closed}

	got := row.toModel()
	if got.ID != "42" {
		t.Errorf("ID = %q", got.ID)
	}
	if got.Status != model.TicketStatusClosed {
		t.Errorf("Status = %q", got.Status)
	}
	if got.CreatedAt.Location() != time.UTC || !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
	if got.ClosedAt == nil || !got.ClosedAt.Equal(closed) {
		t.Errorf("ClosedAt = %v", got.ClosedAt)
	}
}

func TestTableNames(t *testing.T) {
	if (ticketRow{}).TableName() != "support_tickets" {
		t.Error("ticket table name")
	}
	if (usageLogRow{}).TableName() != "api_usage_logs" {
		t.Error("usage log table name")
	}
}
