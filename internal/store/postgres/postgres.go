package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/errs"
	"github.com/psds-microservice/apihub-assistant/internal/model"
	"github.com/psds-microservice/apihub-assistant/internal/store"
	"gorm.io/gorm"
)

type ticketRow struct {
	ID        uint64     `gorm:"primaryKey"`
	Query     string     `gorm:"type:text;not null"`
	Contact   string     `gorm:"type:varchar(255);not null"`
	Status    string     `gorm:"type:varchar(32);index;not null"`
	CreatedAt time.Time  `gorm:"not null"`
	ClosedAt  *time.Time
}

func (ticketRow) TableName() string { return "support_tickets" }

func (r *ticketRow) toModel() model.Ticket {
	t := model.Ticket{
		ID:        strconv.FormatUint(r.ID, 10),
		Query:     r.Query,
		Contact:   r.Contact,
		Status:    model.TicketStatus(r.Status),
		CreatedAt: store.AsUTC(r.CreatedAt),
	}
	if r.ClosedAt != nil {
		closed := store.AsUTC(*r.ClosedAt)
		t.ClosedAt = &closed
	}
	return t
}

type usageLogRow struct {
	ID         uint64 `gorm:"primaryKey"`
	API        *string
	Timestamp  *time.Time
	UserID     *string
	StatusCode *int
}

func (usageLogRow) TableName() string { return "api_usage_logs" }

// TicketStore keeps tickets in the support_tickets table. Ids come from the
// bigserial primary key.
type TicketStore struct {
	db *gorm.DB
}

func NewTicketStore(db *gorm.DB) *TicketStore {
	return &TicketStore{db: db}
}

func (s *TicketStore) Insert(ctx context.Context, t *model.Ticket) (string, error) {
	row := ticketRow{
		Query:     t.Query,
		Contact:   t.Contact,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return strconv.FormatUint(row.ID, 10), nil
}

func (s *TicketStore) Get(ctx context.Context, id string) (*model.Ticket, error) {
	pk, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, errs.ErrTicketNotFound
	}
	var row ticketRow
	if err := s.db.WithContext(ctx).First(&row, pk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	t := row.toModel()
	return &t, nil
}

func (s *TicketStore) FindByStatus(ctx context.Context, status model.TicketStatus) ([]model.Ticket, error) {
	var rows []ticketRow
	if err := s.db.WithContext(ctx).Where("status = ?", string(status)).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Ticket, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

// MarkClosed updates the row only while its status is open, so concurrent
// closes agree on a single winner.
func (s *TicketStore) MarkClosed(ctx context.Context, id string, at time.Time) (bool, error) {
	pk, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return false, errs.ErrTicketNotFound
	}
	res := s.db.WithContext(ctx).Model(&ticketRow{}).
		Where("id = ? AND status = ?", pk, string(model.TicketStatusOpen)).
		Updates(map[string]interface{}{
			"status":    string(model.TicketStatusClosed),
			"closed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

type UsageLogStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUsageLogStore(db *gorm.DB) *UsageLogStore {
	return &UsageLogStore{db: db, now: time.Now}
}

func (s *UsageLogStore) List(ctx context.Context) ([]model.UsageLog, error) {
	var rows []usageLogRow
	if err := s.db.WithContext(ctx).Order("timestamp ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	readAt := s.now()
	out := make([]model.UsageLog, len(rows))
	for i, r := range rows {
		out[i] = store.RawUsageLog{
			API:        r.API,
			Timestamp:  r.Timestamp,
			UserID:     r.UserID,
			StatusCode: r.StatusCode,
		}.Normalize(readAt)
	}
	return out, nil
}
