package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/events"
	"github.com/psds-microservice/apihub-assistant/internal/model"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes ticket events to a Kafka topic (best-effort, never blocks the API).
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a producer. With no brokers or no topic all methods are no-ops.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Enabled() bool {
	return p.writer != nil
}

// TicketEventPayload is the message body minus the "event" key.
func TicketEventPayload(t model.Ticket) map[string]interface{} {
	payload := map[string]interface{}{
		"ticket_id":  t.ID,
		"query":      t.Query,
		"contact":    t.Contact,
		"status":     string(t.Status),
		"created_at": t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.ClosedAt != nil {
		payload["closed_at"] = t.ClosedAt.UTC().Format(time.RFC3339Nano)
	}
	return payload
}

// HandleTicketEvent is an events.Handler.
func (p *Producer) HandleTicketEvent(ctx context.Context, e events.TicketEvent) {
	p.ProduceTicketEvent(ctx, string(e.Type), TicketEventPayload(e.Ticket))
}

// ProduceTicketEvent writes {"event": event, ...payload} keyed by ticket id.
func (p *Producer) ProduceTicketEvent(ctx context.Context, event string, payload map[string]interface{}) {
	if p.writer == nil {
		return
	}
	msg := map[string]interface{}{"event": event}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("kafka: marshal ticket event: %v", err)
		return
	}
	var key []byte
	if id, ok := payload["ticket_id"].(string); ok {
		key = []byte(id)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: body}); err != nil {
		log.Printf("kafka: write ticket event: %v", err)
	}
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
