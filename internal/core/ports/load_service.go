package ports

import (
	"context"
	"time"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

// SaveLoadResult carries the stored load and the refreshed aggregates.
type SaveLoadResult struct {
	Load  *domain.Load
	Stats domain.LoadStats
}

type LoadService interface {
	// SaveLoad stores an opaque load payload for the user; revenue, profit and
	// profitMargin are read from the payload when numeric.
	SaveLoad(ctx context.Context, email string, payload map[string]any) (*SaveLoadResult, error)
	ListLoads(ctx context.Context, email string) ([]*domain.Load, error)
}

type ReminderService interface {
	SetReminder(ctx context.Context, email, text string, at time.Time) (*domain.Reminder, error)
	ListReminders(ctx context.Context, email string) ([]*domain.Reminder, error)
}

// AdminUserView is a user with aggregates derived from the current load list.
type AdminUserView struct {
	User                 *domain.User
	LoadsCount           int
	Stats                domain.LoadStats
	IsSubscriptionActive bool
}

type AdminService interface {
	// ListUsers requires the requesting user to hold the admin role.
	ListUsers(ctx context.Context, requesterEmail string) ([]AdminUserView, error)
}
