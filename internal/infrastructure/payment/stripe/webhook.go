package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

// ParseWebhook verifies the Stripe-Signature header against the endpoint secret
// and decodes the event. The payload is not trusted before verification.
func (p *Processor) ParseWebhook(payload []byte, signature string) (*ports.WebhookEvent, error) {
	return parseWebhook(payload, signature, p.webhookSecret)
}

func parseWebhook(payload []byte, signature, secret string) (*ports.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := &ports.WebhookEvent{
		ID:   event.ID,
		Kind: ports.WebhookEventKind(event.Type),
	}
	if event.Data == nil {
		return out, nil
	}

	switch out.Kind {
	case ports.EventPaymentSucceeded:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("decode invoice: %v", err))
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
	case ports.EventSubscriptionUpdated, ports.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("decode subscription: %v", err))
		}
		out.Subscription = toProcessorSubscription(&sub)
		out.SubscriptionID = sub.ID
		out.CustomerID = out.Subscription.CustomerID
	}
	return out, nil
}
