package ports

import (
	"context"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

// LoadRepository persists freight loads per user.
type LoadRepository interface {
	Append(ctx context.Context, load *domain.Load) error
	// ListByUser returns the user's loads in insertion order.
	ListByUser(ctx context.Context, email string) ([]*domain.Load, error)
}

// ReminderRepository persists reminders per user.
type ReminderRepository interface {
	Create(ctx context.Context, reminder *domain.Reminder) error
	ListByUser(ctx context.Context, email string) ([]*domain.Reminder, error)
}

// ReminderNotifier announces new reminders to downstream consumers.
type ReminderNotifier interface {
	ReminderCreated(ctx context.Context, reminder *domain.Reminder) error
}
