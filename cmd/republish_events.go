package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/application"
	"github.com/psds-microservice/apihub-assistant/internal/events"
	"github.com/psds-microservice/apihub-assistant/internal/kafka"
	"github.com/psds-microservice/apihub-assistant/internal/model"
	"github.com/spf13/cobra"
)

var republishEventsCmd = &cobra.Command{
	Use:   "republish-events",
	Short: "Send a ticket.created event to Kafka for every open ticket",
	RunE:  runRepublishEvents,
}

func runRepublishEvents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateStore(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
	if !producer.Enabled() {
		log.Println("republish-events: KAFKA_BROKERS and KAFKA_TOPIC_TICKET must be set")
		return nil
	}
	defer producer.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()
	stores, err := application.OpenStores(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer stores.Close(context.Background())

	tickets, err := stores.Tickets.FindByStatus(ctx, model.TicketStatusOpen)
	if err != nil {
		return fmt.Errorf("list open tickets: %w", err)
	}
	log.Printf("republish-events: found %d open tickets", len(tickets))
	for i, t := range tickets {
		producer.HandleTicketEvent(ctx, events.TicketEvent{Type: events.TicketCreated, Ticket: t, At: time.Now().UTC()})
		if (i+1)%50 == 0 || i == len(tickets)-1 {
			log.Printf("republish-events: sent %d/%d events", i+1, len(tickets))
		}
	}
	return nil
}
