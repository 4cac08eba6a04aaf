package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// Repositories bundles the collection-backed repositories sharing one database.
type Repositories struct {
	Users         *UserRepository
	Subscriptions *SubscriptionRepository
	Loads         *LoadRepository
	Reminders     *ReminderRepository
}

func NewRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Subscriptions: NewSubscriptionRepository(db),
		Loads:         NewLoadRepository(db),
		Reminders:     NewReminderRepository(db),
	}
}

// EnsureIndexes creates the indexes every repository relies on.
func (r *Repositories) EnsureIndexes(ctx context.Context) error {
	if err := r.Users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := r.Loads.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("loads indexes: %w", err)
	}
	if err := r.Reminders.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("reminders indexes: %w", err)
	}
	return nil
}
