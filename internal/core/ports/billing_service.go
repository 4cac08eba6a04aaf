package ports

import (
	"context"
	"time"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

// CreateSubscriptionResult is returned to the client so it can complete payment.
type CreateSubscriptionResult struct {
	SubscriptionID string
	ClientSecret   string
	Status         string
}

// ActivationResult describes the subscription after a confirmed payment.
type ActivationResult struct {
	Plan   string
	Status string
	Expiry *time.Time
	// Applied is false when a more recent activation was already in place.
	Applied bool
}

// BillingService reconciles local subscription state with the payment processor.
type BillingService interface {
	Plans() []domain.Plan
	CreateCustomer(ctx context.Context, email, customerEmail, name string) (string, error)
	CreateSubscription(ctx context.Context, email, priceID, paymentMethodID string) (*CreateSubscriptionResult, error)
	ConfirmPayment(ctx context.Context, email, subscriptionID string) (*ActivationResult, error)
	Status(ctx context.Context, email string) (*domain.SubscriptionStatus, error)
	Cancel(ctx context.Context, email string) error
	HandleWebhookEvent(ctx context.Context, event WebhookEvent) error
}
