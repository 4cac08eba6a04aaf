package ports

import (
	"context"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

// SubscriptionRepository persists the cached billing state of a user together
// with its SubscriptionRecord. Activate and Cancel must be atomic per user so
// racing entry paths (client polls, webhooks) converge.
type SubscriptionRepository interface {
	// FindRecord returns domain.ErrSubscriptionNotFound when the user has none.
	FindRecord(ctx context.Context, email string) (*domain.SubscriptionRecord, error)
	// Activate applies a under domain.BillingState.Activate semantics and upserts
	// the record when applied. It returns the resulting state and whether a
	// changed anything.
	Activate(ctx context.Context, email string, a domain.Activation) (domain.BillingState, bool, error)
	// Cancel clears the billing fields and deletes the record.
	Cancel(ctx context.Context, email string) error
	// SaveRecord upserts the record alone, leaving the user's billing fields untouched.
	SaveRecord(ctx context.Context, record *domain.SubscriptionRecord) error
}

// EventDeduplicator remembers processed webhook event ids.
type EventDeduplicator interface {
	IsDuplicate(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}
