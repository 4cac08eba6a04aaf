package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestReminderNotifier_PublishesJSON(t *testing.T) {
	ch := new(MockChannel)
	fireAt := time.Date(2025, 5, 1, 15, 0, 0, 0, time.UTC)
	reminder := &domain.Reminder{ID: "r1", UserEmail: "sam@example.com", Text: "call broker", FireAt: fireAt, Active: true}

	ch.On("Publish", "notifications", "reminder.created", false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
		var msg ReminderMessage
		if err := json.Unmarshal(p.Body, &msg); err != nil {
			return false
		}
		return p.ContentType == "application/json" &&
			p.DeliveryMode == amqp.Persistent &&
			msg.Event == "reminder.created" &&
			msg.ID == "r1" &&
			msg.UserEmail == "sam@example.com" &&
			msg.FireAt.Equal(fireAt)
	})).Return(nil).Once()

	n := NewReminderNotifier(ch, "notifications", "reminder.created", zerolog.Nop())
	require.NoError(t, n.ReminderCreated(context.Background(), reminder))
	ch.AssertExpectations(t)
}

func TestReminderNotifier_PublishError(t *testing.T) {
	ch := new(MockChannel)
	ch.On("Publish", "notifications", "reminder.created", false, false, mock.Anything).Return(errors.New("channel closed"))

	n := NewReminderNotifier(ch, "notifications", "reminder.created", zerolog.Nop())
	err := n.ReminderCreated(context.Background(), &domain.Reminder{ID: "r1"})
	assert.ErrorContains(t, err, "channel closed")
}
