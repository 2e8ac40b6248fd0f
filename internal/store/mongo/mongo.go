// Package mongo stores tickets and reads usage logs from MongoDB collections
// support_tickets and api_usage_logs. Documents written by other tools may
// carry created_at/timestamp either as BSON dates or as ISO-8601 strings.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/errs"
	"github.com/psds-microservice/apihub-assistant/internal/model"
	"github.com/psds-microservice/apihub-assistant/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ticketsCollection = "support_tickets"
	logsCollection    = "api_usage_logs"
)

// Client owns the driver connection shared by both stores.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

func Open(ctx context.Context, uri, database string) (*Client, error) {
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Client{client: c, db: c.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func (c *Client) Tickets() *TicketStore {
	return &TicketStore{coll: c.db.Collection(ticketsCollection)}
}

func (c *Client) UsageLogs() *UsageLogStore {
	return &UsageLogStore{coll: c.db.Collection(logsCollection), now: time.Now}
}

type TicketStore struct {
	coll *mongo.Collection
}

func (s *TicketStore) Insert(ctx context.Context, t *model.Ticket) (string, error) {
	res, err := s.coll.InsertOne(ctx, bson.M{
		"query":      t.Query,
		"contact":    t.Contact,
		"status":     string(t.Status),
		"created_at": t.CreatedAt.UTC(),
	})
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Sprint(res.InsertedID), nil
	}
	return oid.Hex(), nil
}

func (s *TicketStore) Get(ctx context.Context, id string) (*model.Ticket, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.ErrTicketNotFound
	}
	var doc bson.M
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	t, err := ticketFromDoc(doc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TicketStore) FindByStatus(ctx context.Context, status model.TicketStatus) ([]model.Ticket, error) {
	cur, err := s.coll.Find(ctx, bson.M{"status": string(status)})
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Ticket, 0, len(docs))
	for _, doc := range docs {
		t, err := ticketFromDoc(doc)
		if err != nil {
			log.Printf("mongo: skip ticket %v: %v", doc["_id"], err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// MarkClosed matches on the open status as well as the id, so concurrent
// closes agree on a single winner.
func (s *TicketStore) MarkClosed(ctx context.Context, id string, at time.Time) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, errs.ErrTicketNotFound
	}
	filter := bson.M{"_id": oid, "status": string(model.TicketStatusOpen)}
	set := bson.M{"status": string(model.TicketStatusClosed), "closed_at": at.UTC()}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, errs.ErrTicketNotFound
	}
	return false, nil
}

type UsageLogStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (s *UsageLogStore) List(ctx context.Context) ([]model.UsageLog, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	readAt := s.now()
	out := make([]model.UsageLog, len(docs))
	for i, doc := range docs {
		out[i] = usageLogFromDoc(doc, readAt)
	}
	return out, nil
}

func ticketFromDoc(doc bson.M) (model.Ticket, error) {
	t := model.Ticket{
		ID:      idString(doc["_id"]),
		Query:   stringField(doc, "query"),
		Contact: stringField(doc, "contact"),
		Status:  model.TicketStatus(stringField(doc, "status")),
	}
	if t.Contact == "" {
		t.Contact = model.AnonymousContact
	}
	created, err := timeValue(doc["created_at"])
	if err != nil {
		return model.Ticket{}, fmt.Errorf("created_at: %w", err)
	}
	t.CreatedAt = created
	if v, ok := doc["closed_at"]; ok && v != nil {
		if closed, err := timeValue(v); err == nil {
			t.ClosedAt = &closed
		}
	}
	return t, nil
}

func usageLogFromDoc(doc bson.M, readAt time.Time) model.UsageLog {
	var raw store.RawUsageLog
	if v, ok := doc["api"].(string); ok {
		raw.API = &v
	}
	if v, ok := doc["timestamp"]; ok && v != nil {
		if ts, err := timeValue(v); err == nil {
			raw.Timestamp = &ts
		}
	}
	if v, ok := doc["user_id"]; ok && v != nil {
		s := fmt.Sprint(v)
		raw.UserID = &s
	}
	if code, ok := intValue(doc["status_code"]); ok {
		raw.StatusCode = &code
	}
	return raw.Normalize(readAt)
}

func timeValue(v any) (time.Time, error) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC(), nil
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC(), nil
	default:
		return store.ParseTimestamp(v)
	}
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

func idString(v any) string {
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(v)
}

func stringField(doc bson.M, key string) string {
	s, _ := doc[key].(string)
	return s
}
