package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

// BillingService reconciles cached subscription state with the payment
// processor. Every entry path (client confirmation, status polls, webhooks)
// funnels paid periods through the repository's Activate so they converge on
// the same result regardless of arrival order.
type BillingService struct {
	users     ports.UserRepository
	subs      ports.SubscriptionRepository
	processor ports.PaymentProcessor
	dedup     ports.EventDeduplicator
	catalog   *domain.PlanCatalog
	logger    zerolog.Logger
	now       func() time.Time
}

func NewBillingService(
	users ports.UserRepository,
	subs ports.SubscriptionRepository,
	processor ports.PaymentProcessor,
	dedup ports.EventDeduplicator,
	catalog *domain.PlanCatalog,
	logger zerolog.Logger,
) *BillingService {
	return &BillingService{
		users:     users,
		subs:      subs,
		processor: processor,
		dedup:     dedup,
		catalog:   catalog,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *BillingService) Plans() []domain.Plan {
	return s.catalog.List()
}

// CreateCustomer creates a processor customer for the user and binds it.
func (s *BillingService) CreateCustomer(ctx context.Context, email, customerEmail, name string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if customerEmail == "" {
		customerEmail = user.Email
	}
	if name == "" {
		name = user.FullName()
	}

	customerID, err := s.processor.CreateCustomer(ctx, ports.CreateCustomerInput{
		Email:  customerEmail,
		Name:   name,
		UserID: user.ID,
	})
	if err != nil {
		return "", domain.NewBillingError("create customer", err)
	}

	if err := s.users.SetCustomerID(ctx, user.Email, customerID); err != nil {
		return "", fmt.Errorf("store customer id: %w", err)
	}

	s.logger.Info().Str("email", user.Email).Str("customer_id", customerID).Msg("customer created")
	return customerID, nil
}

// CreateSubscription starts a processor subscription for the plan behind
// priceID. The plan is resolved before any processor call. Nothing is activated
// here; activation waits for a confirmed payment.
func (s *BillingService) CreateSubscription(ctx context.Context, email, priceID, paymentMethodID string) (*ports.CreateSubscriptionResult, error) {
	if priceID == "" || paymentMethodID == "" {
		return nil, domain.NewValidationError("price id and payment method id are required")
	}
	plan, err := s.catalog.ByPriceID(priceID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	customerID := user.StripeCustomerID
	newCustomer := false
	if customerID == "" {
		customerID, err = s.processor.CreateCustomer(ctx, ports.CreateCustomerInput{
			Email:  user.Email,
			Name:   user.FullName(),
			UserID: user.ID,
		})
		if err != nil {
			return nil, domain.NewBillingError("create customer", err)
		}
		newCustomer = true
	}

	if err := s.processor.AttachPaymentMethod(ctx, customerID, paymentMethodID); err != nil {
		return nil, domain.NewBillingError("attach payment method", err)
	}
	if err := s.processor.SetDefaultPaymentMethod(ctx, customerID, paymentMethodID); err != nil {
		return nil, domain.NewBillingError("set default payment method", err)
	}

	sub, err := s.processor.CreateSubscription(ctx, ports.CreateSubscriptionInput{
		CustomerID: customerID,
		PriceID:    plan.StripePriceID,
		UserID:     user.ID,
		UserEmail:  user.Email,
		Plan:       plan.ID,
	})
	if err != nil {
		return nil, domain.NewBillingError("create subscription", err)
	}

	if newCustomer {
		if err := s.users.SetCustomerID(ctx, user.Email, customerID); err != nil {
			return nil, fmt.Errorf("store customer id: %w", err)
		}
	}

	record := &domain.SubscriptionRecord{
		UserEmail:          user.Email,
		SubscriptionID:     sub.ID,
		Status:             sub.Status,
		Plan:               plan.ID,
		CurrentPeriodStart: sub.CurrentPeriodStart.UTC(),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd.UTC(),
	}
	if err := s.recordPending(ctx, record); err != nil {
		return nil, fmt.Errorf("store subscription record: %w", err)
	}

	s.logger.Info().
		Str("email", user.Email).
		Str("subscription_id", sub.ID).
		Str("plan", plan.ID).
		Str("status", sub.Status).
		Msg("subscription created")

	return &ports.CreateSubscriptionResult{
		SubscriptionID: sub.ID,
		ClientSecret:   sub.ClientSecret,
		Status:         sub.Status,
	}, nil
}

// ConfirmPayment activates the user once the processor reports the subscription active.
func (s *BillingService) ConfirmPayment(ctx context.Context, email, subscriptionID string) (*ports.ActivationResult, error) {
	if subscriptionID == "" {
		return nil, domain.NewValidationError("subscription id is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	sub, err := s.processor.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, domain.NewBillingError("retrieve subscription", err)
	}
	if user.StripeCustomerID == "" || sub.CustomerID != user.StripeCustomerID {
		return nil, fmt.Errorf("%w: subscription does not belong to this account", domain.ErrPermission)
	}
	if sub.Status != "active" {
		return nil, domain.ErrPaymentNotConfirmed
	}

	_, state, applied, err := s.activate(ctx, user.Email, sub)
	if err != nil {
		return nil, err
	}
	return &ports.ActivationResult{
		Plan:    state.Subscription,
		Status:  state.Status,
		Expiry:  state.SubscriptionExpiry,
		Applied: applied,
	}, nil
}

// Status derives the user's current subscription status. The processor is
// consulted first when the user has a customer; if it is unreachable the cached
// fields are used instead.
func (s *BillingService) Status(ctx context.Context, email string) (*domain.SubscriptionStatus, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if user.IsAdmin() || user.StripeCustomerID == "" {
		st := user.LocalStatus(now)
		return &st, nil
	}

	sub, err := s.processor.FindActiveSubscription(ctx, user.StripeCustomerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", user.Email).Msg("processor unavailable, using cached subscription state")
		st := user.LocalStatus(now)
		return &st, nil
	}
	if sub == nil || sub.Status != "active" {
		st := user.LocalStatus(now)
		return &st, nil
	}

	plan, state, applied, err := s.activate(ctx, user.Email, sub)
	if err != nil {
		return nil, err
	}
	if !applied {
		user.BillingState = state
		st := user.LocalStatus(now)
		return &st, nil
	}
	expiry := sub.CurrentPeriodEnd.UTC()
	return &domain.SubscriptionStatus{
		Status:   domain.StatusActive,
		Plan:     plan.ID,
		Expiry:   &expiry,
		IsActive: true,
	}, nil
}

// Cancel cancels the user's active processor subscription and clears local state.
func (s *BillingService) Cancel(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.StripeCustomerID == "" {
		return domain.ErrSubscriptionNotFound
	}

	sub, err := s.processor.FindActiveSubscription(ctx, user.StripeCustomerID)
	if err != nil {
		return domain.NewBillingError("list subscriptions", err)
	}
	if sub == nil {
		return domain.ErrSubscriptionNotFound
	}
	if err := s.processor.CancelSubscription(ctx, sub.ID); err != nil {
		return domain.NewBillingError("cancel subscription", err)
	}
	if err := s.subs.Cancel(ctx, user.Email); err != nil {
		return fmt.Errorf("clear subscription: %w", err)
	}

	s.logger.Info().Str("email", user.Email).Str("subscription_id", sub.ID).Msg("subscription cancelled")
	return nil
}

// HandleWebhookEvent applies a verified processor event. Events already seen are
// skipped; an event is only marked as seen after it was handled successfully.
func (s *BillingService) HandleWebhookEvent(ctx context.Context, ev ports.WebhookEvent) error {
	if ev.ID != "" {
		dup, err := s.dedup.IsDuplicate(ctx, ev.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("event_id", ev.ID).Msg("dedup check failed")
		} else if dup {
			s.logger.Debug().Str("event_id", ev.ID).Msg("duplicate webhook event skipped")
			return nil
		}
	}

	var err error
	switch ev.Kind {
	case ports.EventPaymentSucceeded:
		err = s.onPaymentSucceeded(ctx, ev)
	case ports.EventSubscriptionUpdated:
		err = s.onSubscriptionUpdated(ctx, ev)
	case ports.EventSubscriptionDeleted:
		err = s.onSubscriptionDeleted(ctx, ev)
	default:
		s.logger.Debug().Str("event_id", ev.ID).Str("kind", string(ev.Kind)).Msg("webhook event ignored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("handle %s: %w", ev.Kind, err)
	}

	if ev.ID != "" {
		if err := s.dedup.Mark(ctx, ev.ID); err != nil {
			s.logger.Warn().Err(err).Str("event_id", ev.ID).Msg("failed to mark webhook event")
		}
	}
	return nil
}

func (s *BillingService) onPaymentSucceeded(ctx context.Context, ev ports.WebhookEvent) error {
	if ev.SubscriptionID == "" {
		return nil
	}
	user, err := s.userForCustomer(ctx, ev.CustomerID)
	if err != nil || user == nil {
		return err
	}

	sub, err := s.processor.GetSubscription(ctx, ev.SubscriptionID)
	if err != nil {
		return domain.NewBillingError("retrieve subscription", err)
	}
	if !sub.Active() {
		s.logger.Info().Str("subscription_id", sub.ID).Str("status", sub.Status).Msg("payment succeeded on inactive subscription")
		return nil
	}
	_, _, _, err = s.activate(ctx, user.Email, sub)
	return err
}

func (s *BillingService) onSubscriptionUpdated(ctx context.Context, ev ports.WebhookEvent) error {
	sub := ev.Subscription
	if sub == nil {
		return domain.NewValidationError("subscription event without subscription object")
	}
	user, err := s.userForCustomer(ctx, ev.CustomerID)
	if err != nil || user == nil {
		return err
	}

	if sub.Active() {
		_, _, _, err := s.activate(ctx, user.Email, sub)
		return err
	}

	rec, err := s.subs.FindRecord(ctx, user.Email)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.SubscriptionID != sub.ID {
		if rec.Live() {
			s.logger.Debug().Str("subscription_id", sub.ID).Str("current", rec.SubscriptionID).Msg("update for superseded subscription ignored")
			return nil
		}
		rec = &domain.SubscriptionRecord{UserEmail: user.Email, SubscriptionID: sub.ID, Plan: rec.Plan}
		if plan, err := s.catalog.Resolve(sub.PriceID, sub.MetadataPlan); err == nil {
			rec.Plan = plan.ID
		}
	}
	rec.Status = sub.Status
	rec.CurrentPeriodStart = sub.CurrentPeriodStart.UTC()
	rec.CurrentPeriodEnd = sub.CurrentPeriodEnd.UTC()
	return s.subs.SaveRecord(ctx, rec)
}

func (s *BillingService) onSubscriptionDeleted(ctx context.Context, ev ports.WebhookEvent) error {
	user, err := s.userForCustomer(ctx, ev.CustomerID)
	if err != nil || user == nil {
		return err
	}

	rec, err := s.subs.FindRecord(ctx, user.Email)
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
	case err != nil:
		return err
	case rec.SubscriptionID != ev.SubscriptionID && rec.Live():
		s.logger.Info().Str("subscription_id", ev.SubscriptionID).Str("current", rec.SubscriptionID).Msg("deletion of superseded subscription ignored")
		return nil
	}

	if err := s.subs.Cancel(ctx, user.Email); err != nil {
		return err
	}
	s.logger.Info().Str("email", user.Email).Str("subscription_id", ev.SubscriptionID).Msg("subscription ended by processor")
	return nil
}

// recordPending stores a newly created subscription unless another live one is
// on record. A live record is only replaced when the new one activates.
func (s *BillingService) recordPending(ctx context.Context, record *domain.SubscriptionRecord) error {
	cur, err := s.subs.FindRecord(ctx, record.UserEmail)
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
	case err != nil:
		return err
	case cur.Live() && cur.SubscriptionID != record.SubscriptionID:
		s.logger.Debug().
			Str("subscription_id", record.SubscriptionID).
			Str("current", cur.SubscriptionID).
			Msg("pending subscription not recorded over live one")
		return nil
	}
	return s.subs.SaveRecord(ctx, record)
}

// activate resolves the plan and applies the processor's paid period.
func (s *BillingService) activate(ctx context.Context, email string, sub *ports.ProcessorSubscription) (domain.Plan, domain.BillingState, bool, error) {
	plan, err := s.catalog.Resolve(sub.PriceID, sub.MetadataPlan)
	if err != nil {
		s.logger.Error().Err(err).Str("subscription_id", sub.ID).Msg("cannot resolve plan")
		return domain.Plan{}, domain.BillingState{}, false, err
	}

	state, applied, err := s.subs.Activate(ctx, email, domain.Activation{
		Plan:            plan,
		SubscriptionID:  sub.ID,
		ProcessorStatus: sub.Status,
		PeriodStart:     sub.CurrentPeriodStart,
		PeriodEnd:       sub.CurrentPeriodEnd,
	})
	if err != nil {
		return domain.Plan{}, domain.BillingState{}, false, fmt.Errorf("activate subscription: %w", err)
	}

	ev := s.logger.Info()
	if !applied {
		ev = s.logger.Debug()
	}
	ev.Str("email", email).
		Str("subscription_id", sub.ID).
		Str("plan", plan.ID).
		Time("period_end", sub.CurrentPeriodEnd).
		Bool("applied", applied).
		Msg("subscription activation")
	return plan, state, applied, nil
}

// userForCustomer finds the user bound to a processor customer, falling back to
// the customer's email. Unknown customers yield nil without error.
func (s *BillingService) userForCustomer(ctx context.Context, customerID string) (*domain.User, error) {
	if customerID == "" {
		return nil, nil
	}
	user, err := s.users.FindByCustomerID(ctx, customerID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	email, err := s.processor.CustomerEmail(ctx, customerID)
	if err != nil {
		return nil, domain.NewBillingError("retrieve customer", err)
	}
	user, err = s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Warn().Str("customer_id", customerID).Msg("webhook for unknown customer ignored")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.StripeCustomerID == "" {
		if err := s.users.SetCustomerID(ctx, user.Email, customerID); err != nil {
			return nil, fmt.Errorf("bind customer id: %w", err)
		}
		user.StripeCustomerID = customerID
	}
	return user, nil
}
