package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

const (
	collectionLoads     = "loads"
	collectionReminders = "reminders"
)

// loadDoc keeps the client payload as its original JSON text; decoding nested
// documents into map[string]any would otherwise yield driver-specific types.
type loadDoc struct {
	ID           string    `bson:"_id"`
	UserEmail    string    `bson:"user_email"`
	UserName     string    `bson:"user_name"`
	CreatedAt    time.Time `bson:"created_at"`
	Revenue      float64   `bson:"revenue"`
	Profit       float64   `bson:"profit"`
	ProfitMargin float64   `bson:"profit_margin"`
	Payload      string    `bson:"payload,omitempty"`
}

type LoadRepository struct {
	col *mongo.Collection
}

func NewLoadRepository(db *mongo.Database) *LoadRepository {
	return &LoadRepository{col: db.Collection(collectionLoads)}
}

func (r *LoadRepository) Append(ctx context.Context, load *domain.Load) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := loadDoc{
		ID:           load.ID,
		UserEmail:    load.UserEmail,
		UserName:     load.UserName,
		CreatedAt:    load.CreatedAt.UTC(),
		Revenue:      load.Revenue,
		Profit:       load.Profit,
		ProfitMargin: load.ProfitMargin,
	}
	if len(load.Payload) > 0 {
		raw, err := json.Marshal(load.Payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		doc.Payload = string(raw)
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert load: %w", err)
	}
	return nil
}

func (r *LoadRepository) ListByUser(ctx context.Context, email string) ([]*domain.Load, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"user_email": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("find loads: %w", err)
	}
	defer cur.Close(ctx)

	var docs []loadDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode loads: %w", err)
	}

	out := make([]*domain.Load, 0, len(docs))
	for _, d := range docs {
		l := &domain.Load{
			ID:           d.ID,
			UserEmail:    d.UserEmail,
			UserName:     d.UserName,
			CreatedAt:    d.CreatedAt.UTC(),
			Revenue:      d.Revenue,
			Profit:       d.Profit,
			ProfitMargin: d.ProfitMargin,
		}
		if d.Payload != "" {
			if err := json.Unmarshal([]byte(d.Payload), &l.Payload); err != nil {
				return nil, fmt.Errorf("decode payload of load %s: %w", d.ID, err)
			}
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *LoadRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_email", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

type reminderDoc struct {
	ID        string    `bson:"_id"`
	UserEmail string    `bson:"user_email"`
	Text      string    `bson:"text"`
	FireAt    time.Time `bson:"fire_at"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
}

type ReminderRepository struct {
	col *mongo.Collection
}

func NewReminderRepository(db *mongo.Database) *ReminderRepository {
	return &ReminderRepository{col: db.Collection(collectionReminders)}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, reminderDoc{
		ID:        reminder.ID,
		UserEmail: reminder.UserEmail,
		Text:      reminder.Text,
		FireAt:    reminder.FireAt.UTC(),
		Active:    reminder.Active,
		CreatedAt: reminder.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r *ReminderRepository) ListByUser(ctx context.Context, email string) ([]*domain.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"user_email": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("find reminders: %w", err)
	}
	defer cur.Close(ctx)

	var docs []reminderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reminders: %w", err)
	}

	out := make([]*domain.Reminder, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Reminder{
			ID:        d.ID,
			UserEmail: d.UserEmail,
			Text:      d.Text,
			FireAt:    d.FireAt.UTC(),
			Active:    d.Active,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *ReminderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_email", Value: 1}},
	})
	return err
}
