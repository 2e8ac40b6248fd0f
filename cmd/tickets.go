package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/application"
	"github.com/psds-microservice/apihub-assistant/internal/events"
	"github.com/psds-microservice/apihub-assistant/internal/kafka"
	"github.com/psds-microservice/apihub-assistant/internal/service"
	"github.com/spf13/cobra"
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Inspect and close support tickets",
}

var ticketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open tickets, longest-waiting first",
	Args:  cobra.NoArgs,
	RunE:  runTicketsList,
}

var ticketsCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close an open ticket",
	Args:  cobra.ExactArgs(1),
	RunE:  runTicketsClose,
}

func init() {
	ticketsCmd.AddCommand(ticketsListCmd)
	ticketsCmd.AddCommand(ticketsCloseCmd)
}

// withTicketService runs fn against the configured store. Closed events go
// to Kafka when it is configured; operator notifications are not sent from here.
func withTicketService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.TicketService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateStore(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	stores, err := application.OpenStores(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer stores.Close(context.Background())

	bus := events.NewBus(10 * time.Second)
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
	defer producer.Close()
	if producer.Enabled() {
		bus.Subscribe(events.TicketClosed, producer.HandleTicketEvent)
	}
	defer bus.Wait()

	return fn(ctx, service.NewTicketService(stores.Tickets, bus))
}

func runTicketsList(cmd *cobra.Command, args []string) error {
	return withTicketService(cmd, func(ctx context.Context, svc *service.TicketService) error {
		views, err := svc.ListOpen(ctx)
		if err != nil {
			return err
		}
		if len(views) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No open tickets.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tHOURS OPEN\tCONTACT\tCREATED\tQUERY")
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\t%s\n", v.ID, v.HoursOpen, v.Contact, v.CreatedAt.Format(time.RFC3339), truncate(v.Query, 60))
		}
		return w.Flush()
	})
}

func runTicketsClose(cmd *cobra.Command, args []string) error {
	return withTicketService(cmd, func(ctx context.Context, svc *service.TicketService) error {
		t, err := svc.Close(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ticket %s is %s.\n", t.ID, t.Status)
		return nil
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

