package ports

import (
	"context"
	"time"
)

// ProcessorSubscription is the slice of a processor subscription the core relies on.
type ProcessorSubscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	MetadataPlan       string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	// ClientSecret is only populated on creation (latest invoice payment intent).
	ClientSecret string
}

// Active reports whether the processor considers the subscription paid up.
func (s *ProcessorSubscription) Active() bool {
	return s.Status == "active" || s.Status == "trialing"
}

// CreateCustomerInput carries the data sent when creating a processor customer.
type CreateCustomerInput struct {
	Email  string
	Name   string
	UserID string
}

// CreateSubscriptionInput carries the data sent when creating a processor subscription.
type CreateSubscriptionInput struct {
	CustomerID string
	PriceID    string
	UserID     string
	UserEmail  string
	Plan       string
}

// WebhookEventKind enumerates the processor events the core reacts to.
type WebhookEventKind string

const (
	EventPaymentSucceeded    WebhookEventKind = "invoice.payment_succeeded"
	EventSubscriptionUpdated WebhookEventKind = "customer.subscription.updated"
	EventSubscriptionDeleted WebhookEventKind = "customer.subscription.deleted"
)

// WebhookEvent is a verified, parsed processor event.
type WebhookEvent struct {
	ID         string
	Kind       WebhookEventKind
	CustomerID string
	// SubscriptionID is set for every recognised kind.
	SubscriptionID string
	// Subscription is the embedded object for subscription.* events; nil for invoices.
	Subscription *ProcessorSubscription
}

// PaymentProcessor is the external billing collaborator. Implementations must not
// retry on their own; every failure is returned to the caller.
type PaymentProcessor interface {
	CreateCustomer(ctx context.Context, in CreateCustomerInput) (string, error)
	CustomerEmail(ctx context.Context, customerID string) (string, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (*ProcessorSubscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*ProcessorSubscription, error)
	// FindActiveSubscription returns nil, nil when the customer has no active subscription.
	FindActiveSubscription(ctx context.Context, customerID string) (*ProcessorSubscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	// ParseWebhook verifies the signature before decoding. Unrecognised kinds are
	// returned with only ID and Kind set.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
