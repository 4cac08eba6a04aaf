package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

type ReminderService struct {
	users     ports.UserRepository
	reminders ports.ReminderRepository
	notifier  ports.ReminderNotifier
	logger    zerolog.Logger
	now       func() time.Time
}

func NewReminderService(users ports.UserRepository, reminders ports.ReminderRepository, notifier ports.ReminderNotifier, logger zerolog.Logger) *ReminderService {
	return &ReminderService{
		users:     users,
		reminders: reminders,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// SetReminder stores a reminder that must fire in the future. Notification
// failures are logged and do not fail the request.
func (s *ReminderService) SetReminder(ctx context.Context, email, text string, at time.Time) (*domain.Reminder, error) {
	text = strings.TrimSpace(text)
	if text == "" || at.IsZero() {
		return nil, domain.NewValidationError("reminder text and date/time are required")
	}
	now := s.now()
	if !at.After(now) {
		return nil, domain.NewValidationError("please select a future date and time")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	r := &domain.Reminder{
		ID:        uuid.NewString(),
		UserEmail: user.Email,
		Text:      text,
		FireAt:    at.UTC(),
		Active:    true,
		CreatedAt: now.UTC(),
	}
	if err := s.reminders.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}

	if err := s.notifier.ReminderCreated(ctx, r); err != nil {
		s.logger.Warn().Err(err).Str("reminder_id", r.ID).Msg("failed to publish reminder")
	}
	return r, nil
}

func (s *ReminderService) ListReminders(ctx context.Context, email string) ([]*domain.Reminder, error) {
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, err
	}
	return s.reminders.ListByUser(ctx, email)
}
