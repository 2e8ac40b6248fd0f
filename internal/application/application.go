package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/apihub-assistant/internal/assistant"
	"github.com/psds-microservice/apihub-assistant/internal/catalog"
	"github.com/psds-microservice/apihub-assistant/internal/config"
	"github.com/psds-microservice/apihub-assistant/internal/dashboard"
	"github.com/psds-microservice/apihub-assistant/internal/escalation"
	"github.com/psds-microservice/apihub-assistant/internal/events"
	"github.com/psds-microservice/apihub-assistant/internal/handler"
	"github.com/psds-microservice/apihub-assistant/internal/kafka"
	"github.com/psds-microservice/apihub-assistant/internal/llm"
	"github.com/psds-microservice/apihub-assistant/internal/notifier"
	"github.com/psds-microservice/apihub-assistant/internal/router"
	"github.com/psds-microservice/apihub-assistant/internal/service"
	"github.com/psds-microservice/apihub-assistant/internal/session"
)

const (
	eventTimeout  = 10 * time.Second
	sweepInterval = time.Minute
	warningLimit  = 100
)

// Core is everything a chat front end needs: stores, the ticket service,
// event subscribers and the turn orchestrator.
type Core struct {
	Config    *config.Config
	Stores    *Stores
	Bus       *events.Bus
	Tickets   *service.TicketService
	Assistant *assistant.Orchestrator
	Warnings  *notifier.Warnings
	producer  *kafka.Producer
}

// NewCore validates cfg and wires the domain. Postgres migrations run first.
func NewCore(ctx context.Context, cfg *config.Config) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	detector, err := escalation.New(escalation.Config{
		TriggerPhrases: cfg.TriggerPhrases,
		ContextWindow:  cfg.ContextWindow,
	})
	if err != nil {
		return nil, err
	}
	model, err := llm.NewOpenAI(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}
	n, err := buildNotifier(cfg)
	if err != nil {
		return nil, err
	}
	stores, err := OpenStores(ctx, cfg, true)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(eventTimeout)
	warnings := notifier.NewWarnings(warningLimit)
	bus.Subscribe(events.TicketCreated, notifier.Subscriber(n, warnings))

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
	if producer.Enabled() {
		bus.Subscribe(events.TicketCreated, producer.HandleTicketEvent)
		bus.Subscribe(events.TicketClosed, producer.HandleTicketEvent)
	}

	tickets := service.NewTicketService(stores.Tickets, bus)
	return &Core{
		Config:    cfg,
		Stores:    stores,
		Bus:       bus,
		Tickets:   tickets,
		Assistant: assistant.New(model, detector, tickets),
		Warnings:  warnings,
		producer:  producer,
	}, nil
}

// Close waits for in-flight notifications, then releases connections.
func (c *Core) Close(ctx context.Context) error {
	c.Bus.Wait()
	if err := c.producer.Close(); err != nil {
		log.Printf("kafka: close: %v", err)
	}
	return c.Stores.Close(ctx)
}

// buildNotifier picks Twilio when credentials are present and adds the
// operator webhook when configured. Without either, notifications are only logged.
func buildNotifier(cfg *config.Config) (notifier.Notifier, error) {
	var channels notifier.Multi
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" && cfg.Twilio.From != "" {
		tw, err := notifier.NewTwilio(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, cfg.SupportContact, cfg.Twilio.Channel)
		if err != nil {
			return nil, fmt.Errorf("twilio: %w", err)
		}
		channels = append(channels, tw)
	}
	if cfg.OperatorWebhookURL != "" {
		channels = append(channels, notifier.NewWebhook(cfg.OperatorWebhookURL))
	}
	if len(channels) == 0 {
		log.Println("notifier: no channel configured, notifications are logged only")
		return notifier.Log{}, nil
	}
	return channels, nil
}

// API serves the HTTP surface (mode api).
type API struct {
	core     *Core
	httpSrv  *http.Server
	sessions *session.Registry
}

func NewAPI(ctx context.Context, cfg *config.Config) (*API, error) {
	cat, err := catalog.Load(cfg.APICatalogFile)
	if err != nil {
		return nil, err
	}
	core, err := NewCore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions := session.NewRegistry(cfg.SessionIdleTimeout)
	dash := dashboard.NewService(core.Stores.UsageLogs, core.Tickets, cat, nil, core.Warnings)
	h := router.New(router.Handlers{
		Tickets:   handler.NewTicketHandler(core.Tickets),
		Chat:      handler.NewChatHandler(core.Assistant, sessions),
		Dashboard: handler.NewDashboardHandler(dash),
		Ready:     core.Stores.Ping,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &API{core: core, httpSrv: httpSrv, sessions: sessions}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	host := a.core.Config.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.core.Config.HTTPPort
	log.Printf("HTTP server listening on %s", a.httpSrv.Addr)
	log.Printf("  Swagger UI:    %s/swagger", base)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  API v1:        %s/api/v1/", base)
	log.Printf("  Chat (ws):     %s/api/v1/chat/ws", base)
	log.Printf("store=%s model=%s window=%d", a.core.Config.StoreDriver, a.core.Config.LLM.Model, a.core.Config.ContextWindow)

	go a.sessions.RunSweeper(ctx, sweepInterval)

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		log.Printf("http: %v", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.core.Close(shutdownCtx); err != nil {
		log.Printf("store close: %v", err)
	}
	return serveErr
}
