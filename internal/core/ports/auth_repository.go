package ports

import (
	"context"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

// UserRepository defines persistence for user accounts. Mutations are targeted so
// concurrent requests touching different concerns of one user never overwrite
// each other.
type UserRepository interface {
	// Create stores a new user; returns domain.ErrUserExists on a taken email.
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByReferralCode looks up the owner of a referral code.
	FindByReferralCode(ctx context.Context, code string) (*domain.User, error)
	// FindByCustomerID looks up the user bound to a processor customer.
	FindByCustomerID(ctx context.Context, customerID string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	SetCustomerID(ctx context.Context, email, customerID string) error
	UpdateLoadStats(ctx context.Context, email string, stats domain.LoadStats) error
}

// ReferralRepository persists referral credits.
type ReferralRepository interface {
	// Credit atomically bumps the referrer's counters and records the event.
	Credit(ctx context.Context, event domain.ReferralEvent) error
	ListByReferrer(ctx context.Context, email string) ([]domain.ReferralEvent, error)
}
