package application

import (
	"context"
	"fmt"
	"log"

	"github.com/psds-microservice/apihub-assistant/internal/config"
	"github.com/psds-microservice/apihub-assistant/internal/database"
	"github.com/psds-microservice/apihub-assistant/internal/store"
	"github.com/psds-microservice/apihub-assistant/internal/store/memory"
	"github.com/psds-microservice/apihub-assistant/internal/store/mongo"
	"github.com/psds-microservice/apihub-assistant/internal/store/postgres"
)

// Stores is the persistence selected by STORE_DRIVER.
type Stores struct {
	Tickets   store.TicketStore
	UsageLogs store.UsageLogStore
	Ping      func(ctx context.Context) error
	close     func(ctx context.Context) error
}

func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStores connects the configured backend. For postgres, migrate applies
// pending migrations first.
func OpenStores(ctx context.Context, cfg *config.Config, migrate bool) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		if migrate {
			if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		db, err := database.Open(cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		return &Stores{
			Tickets:   postgres.NewTicketStore(db),
			UsageLogs: postgres.NewUsageLogStore(db),
			Ping:      sqlDB.PingContext,
			close:     func(context.Context) error { return sqlDB.Close() },
		}, nil
	case config.StoreDriverMongo:
		c, err := mongo.Open(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Tickets:   c.Tickets(),
			UsageLogs: c.UsageLogs(),
			Ping:      c.Ping,
			close:     c.Close,
		}, nil
	case config.StoreDriverMemory:
		log.Println("store: using in-memory store, data is lost on exit")
		return &Stores{
			Tickets:   memory.NewTicketStore(),
			UsageLogs: memory.NewUsageLogStore(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
