package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

type AdminService struct {
	users  ports.UserRepository
	loads  ports.LoadRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewAdminService(users ports.UserRepository, loads ports.LoadRepository, logger zerolog.Logger) *AdminService {
	return &AdminService{users: users, loads: loads, logger: logger, now: time.Now}
}

// ListUsers returns every user with stats derived from their current loads
// rather than the cached aggregates.
func (s *AdminService) ListUsers(ctx context.Context, requesterEmail string) ([]ports.AdminUserView, error) {
	requester, err := s.users.FindByEmail(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	now := s.now()
	views := make([]ports.AdminUserView, 0, len(users))
	for _, u := range users {
		loads, err := s.loads.ListByUser(ctx, u.Email)
		if err != nil {
			return nil, fmt.Errorf("list loads for %s: %w", u.Email, err)
		}
		views = append(views, ports.AdminUserView{
			User:                 u,
			LoadsCount:           len(loads),
			Stats:                domain.ComputeLoadStats(loads),
			IsSubscriptionActive: u.IsAdmin() || u.HasActiveSubscription(now),
		})
	}
	return views, nil
}
