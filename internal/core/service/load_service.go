package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

// LoadService stores freight loads for subscribed users and keeps their
// aggregates current.
type LoadService struct {
	users  ports.UserRepository
	loads  ports.LoadRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewLoadService(users ports.UserRepository, loads ports.LoadRepository, logger zerolog.Logger) *LoadService {
	return &LoadService{users: users, loads: loads, logger: logger, now: time.Now}
}

// SaveLoad appends a load and recomputes the user's stats from the full list.
// Gating reads only cached fields; admins are exempt.
func (s *LoadService) SaveLoad(ctx context.Context, email string, payload map[string]any) (*ports.SaveLoadResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !user.IsAdmin() && !user.HasActiveSubscription(now) {
		return nil, domain.ErrSubscriptionRequired
	}

	load := &domain.Load{
		ID:           uuid.NewString(),
		UserEmail:    user.Email,
		UserName:     user.FullName(),
		CreatedAt:    now.UTC(),
		Revenue:      number(payload["revenue"]),
		Profit:       number(payload["profit"]),
		ProfitMargin: number(payload["profitMargin"]),
		Payload:      payload,
	}
	if err := s.loads.Append(ctx, load); err != nil {
		return nil, fmt.Errorf("append load: %w", err)
	}

	all, err := s.loads.ListByUser(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("list loads: %w", err)
	}
	stats := domain.ComputeLoadStats(all)
	if err := s.users.UpdateLoadStats(ctx, user.Email, stats); err != nil {
		return nil, fmt.Errorf("update load stats: %w", err)
	}

	s.logger.Info().Str("email", user.Email).Str("load_id", load.ID).Int("total_loads", stats.TotalLoads).Msg("load saved")
	return &ports.SaveLoadResult{Load: load, Stats: stats}, nil
}

func (s *LoadService) ListLoads(ctx context.Context, email string) ([]*domain.Load, error) {
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, err
	}
	return s.loads.ListByUser(ctx, email)
}

// number coerces a decoded JSON value to float64; anything non-numeric is zero.
func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}
