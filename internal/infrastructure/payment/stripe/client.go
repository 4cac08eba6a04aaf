// Package stripe adapts the Stripe API to ports.PaymentProcessor.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/goodmove/logistics-api/internal/core/ports"
)

const requestTimeout = 15 * time.Second

// Processor implements ports.PaymentProcessor. It never retries; every Stripe
// error is returned to the caller.
type Processor struct {
	api           *client.API
	webhookSecret string
	logger        zerolog.Logger
}

func NewProcessor(secretKey, webhookSecret string, logger zerolog.Logger) *Processor {
	return &Processor{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

func (p *Processor) CreateCustomer(ctx context.Context, in ports.CreateCustomerInput) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := &stripe.CustomerParams{
		Email: stripe.String(in.Email),
		Name:  stripe.String(in.Name),
	}
	params.Context = ctx
	params.AddMetadata("userId", in.UserID)

	c, err := p.api.Customers.New(params)
	if err != nil {
		return "", p.fail("create customer", err)
	}
	return c.ID, nil
}

func (p *Processor) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := &stripe.CustomerParams{}
	params.Context = ctx

	c, err := p.api.Customers.Get(customerID, params)
	if err != nil {
		return "", p.fail("get customer", err)
	}
	if c.Deleted || c.Email == "" {
		return "", errors.New("stripe customer has no email")
	}
	return c.Email, nil
}

func (p *Processor) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx

	if _, err := p.api.PaymentMethods.Attach(paymentMethodID, params); err != nil {
		return p.fail("attach payment method", err)
	}
	return nil
}

func (p *Processor) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	if _, err := p.api.Customers.Update(customerID, params); err != nil {
		return p.fail("set default payment method", err)
	}
	return nil
}

// CreateSubscription creates an incomplete subscription whose first invoice
// must be paid by the client with the returned payment intent secret.
func (p *Processor) CreateSubscription(ctx context.Context, in ports.CreateSubscriptionInput) (*ports.ProcessorSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(in.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(in.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")
	params.AddMetadata("userId", in.UserID)
	params.AddMetadata("userEmail", in.UserEmail)
	params.AddMetadata("plan", in.Plan)

	s, err := p.api.Subscriptions.New(params)
	if err != nil {
		return nil, p.fail("create subscription", err)
	}
	return toProcessorSubscription(s), nil
}

func (p *Processor) GetSubscription(ctx context.Context, subscriptionID string) (*ports.ProcessorSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	s, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, p.fail("get subscription", err)
	}
	return toProcessorSubscription(s), nil
}

func (p *Processor) FindActiveSubscription(ctx context.Context, customerID string) (*ports.ProcessorSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := p.api.Subscriptions.List(params)
	if it.Next() {
		return toProcessorSubscription(it.Subscription()), nil
	}
	if err := it.Err(); err != nil {
		return nil, p.fail("list subscriptions", err)
	}
	return nil, nil
}

func (p *Processor) CancelSubscription(ctx context.Context, subscriptionID string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	if _, err := p.api.Subscriptions.Cancel(subscriptionID, params); err != nil {
		return p.fail("cancel subscription", err)
	}
	return nil
}

// fail logs a Stripe failure with its request id and error code and wraps it.
func (p *Processor) fail(op string, err error) error {
	ev := p.logger.Warn().Err(err).Str("op", op)
	var se *stripe.Error
	if errors.As(err, &se) {
		ev = ev.Str("request_id", se.RequestID).
			Str("code", string(se.Code)).
			Int("http_status", se.HTTPStatusCode)
	}
	ev.Msg("stripe request failed")
	return fmt.Errorf("stripe %s: %w", op, err)
}

func toProcessorSubscription(s *stripe.Subscription) *ports.ProcessorSubscription {
	out := &ports.ProcessorSubscription{
		ID:     s.ID,
		Status: string(s.Status),
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PriceID = s.Items.Data[0].Price.ID
	}
	if s.Metadata != nil {
		out.MetadataPlan = s.Metadata["plan"]
	}
	if s.CurrentPeriodStart > 0 {
		out.CurrentPeriodStart = time.Unix(s.CurrentPeriodStart, 0).UTC()
	}
	if s.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(s.CurrentPeriodEnd, 0).UTC()
	}
	if s.LatestInvoice != nil && s.LatestInvoice.PaymentIntent != nil {
		out.ClientSecret = s.LatestInvoice.PaymentIntent.ClientSecret
	}
	return out
}
