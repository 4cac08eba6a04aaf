package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

var billingNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newBillingFixture(t *testing.T) (*BillingService, *stubStore, *stubProcessor) {
	t.Helper()
	store := newStubStore()
	proc := newStubProcessor()
	svc := NewBillingService(store, store, proc, newStubDedup(), domain.DefaultPlanCatalog(), zerolog.Nop())
	svc.now = func() time.Time { return billingNow }
	return svc, store, proc
}

func seedUser(store *stubStore, email, customerID string) {
	store.put(&domain.User{
		ID:               "u-" + email,
		FirstName:        "Dana",
		LastName:         "Hauler",
		Email:            email,
		Role:             domain.RoleUser,
		StripeCustomerID: customerID,
		BillingState:     domain.NoSubscription(),
	})
}

func monthlyPrice(t *testing.T) string {
	t.Helper()
	p, err := domain.DefaultPlanCatalog().Get(domain.PlanMonthly)
	if err != nil {
		t.Fatalf("monthly plan missing: %v", err)
	}
	return p.StripePriceID
}

func activeSub(id, customer, priceID string, end time.Time) *ports.ProcessorSubscription {
	return &ports.ProcessorSubscription{
		ID:                 id,
		CustomerID:         customer,
		Status:             "active",
		PriceID:            priceID,
		CurrentPeriodStart: end.AddDate(0, 0, -30),
		CurrentPeriodEnd:   end,
	}
}

func TestBillingService_CreateSubscription_NewCustomer(t *testing.T) {
	svc, store, _ := newBillingFixture(t)
	seedUser(store, "dana@example.com", "")

	res, err := svc.CreateSubscription(context.Background(), "dana@example.com", monthlyPrice(t), "pm_1")
	if err != nil {
		t.Fatalf("CreateSubscription returned error: %v", err)
	}
	if res.SubscriptionID != "sub_created" || res.ClientSecret != "pi_secret" || res.Status != "incomplete" {
		t.Fatalf("unexpected result: %+v", res)
	}

	u := store.get("dana@example.com")
	if u.StripeCustomerID != "cus_new" {
		t.Fatalf("expected customer to be stored, got %q", u.StripeCustomerID)
	}
	if u.Subscription != domain.SubscriptionNone || u.Status != domain.StatusInactive {
		t.Fatalf("subscription must not activate before payment: %+v", u.BillingState)
	}

	rec, err := store.FindRecord(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("expected record: %v", err)
	}
	if rec.Status != "incomplete" || rec.Plan != domain.PlanMonthly {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestBillingService_CreateSubscription_UnknownPriceNoProcessorCall(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "")

	_, err := svc.CreateSubscription(context.Background(), "dana@example.com", "price_unknown", "pm_1")
	if !errors.Is(err, domain.ErrPlanResolution) {
		t.Fatalf("expected plan resolution error, got %v", err)
	}
	if proc.callCount() != 0 {
		t.Fatalf("expected no processor calls, got %v", proc.calls)
	}
}

func TestBillingService_CreateSubscription_FailureKeepsCustomerUnbound(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "")
	proc.failCreate = errors.New("card declined")

	_, err := svc.CreateSubscription(context.Background(), "dana@example.com", monthlyPrice(t), "pm_1")
	if !errors.Is(err, domain.ErrBilling) {
		t.Fatalf("expected billing error, got %v", err)
	}
	if u := store.get("dana@example.com"); u.StripeCustomerID != "" {
		t.Fatalf("customer id must not be stored on failure, got %q", u.StripeCustomerID)
	}
}

func TestBillingService_CreateSubscription_Validation(t *testing.T) {
	svc, store, _ := newBillingFixture(t)
	seedUser(store, "dana@example.com", "")

	if _, err := svc.CreateSubscription(context.Background(), "dana@example.com", "", "pm_1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBillingService_ConfirmPayment_Activates(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	end := billingNow.AddDate(0, 0, 30)
	proc.put(activeSub("sub_1", "cus_1", monthlyPrice(t), end))

	res, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_1")
	if err != nil {
		t.Fatalf("ConfirmPayment returned error: %v", err)
	}
	if !res.Applied || res.Plan != domain.PlanMonthly || res.Status != domain.StatusActive {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Expiry == nil || !res.Expiry.Equal(end) {
		t.Fatalf("expected expiry %v, got %v", end, res.Expiry)
	}

	u := store.get("dana@example.com")
	if !u.HasActiveSubscription(billingNow) || u.SubscriptionPrice != 99 {
		t.Fatalf("user not activated: %+v", u.BillingState)
	}
}

func TestBillingService_ConfirmPayment_Idempotent(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	proc.put(activeSub("sub_1", "cus_1", monthlyPrice(t), billingNow.AddDate(0, 0, 30)))

	first, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_1")
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	second, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_1")
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if !first.Expiry.Equal(*second.Expiry) || first.Plan != second.Plan {
		t.Fatalf("repeat confirmation changed state: %+v vs %+v", first, second)
	}
}

func TestBillingService_ConfirmPayment_NotActive(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	sub := activeSub("sub_1", "cus_1", monthlyPrice(t), billingNow.AddDate(0, 0, 30))
	sub.Status = "incomplete"
	proc.put(sub)

	_, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_1")
	if !errors.Is(err, domain.ErrPaymentNotConfirmed) {
		t.Fatalf("expected ErrPaymentNotConfirmed, got %v", err)
	}
	if u := store.get("dana@example.com"); u.Status != domain.StatusInactive {
		t.Fatalf("user must stay inactive, got %+v", u.BillingState)
	}
}

func TestBillingService_ConfirmPayment_ForeignSubscription(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	proc.put(activeSub("sub_other", "cus_2", monthlyPrice(t), billingNow.AddDate(0, 0, 30)))

	_, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_other")
	if !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestBillingService_ConfirmPayment_UnknownPriceSurfaces(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	proc.put(activeSub("sub_1", "cus_1", "price_retired", billingNow.AddDate(0, 0, 30)))

	_, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_1")
	if !errors.Is(err, domain.ErrPlanResolution) {
		t.Fatalf("expected plan resolution error, got %v", err)
	}
	if u := store.get("dana@example.com"); u.Subscription != domain.SubscriptionNone {
		t.Fatalf("unknown plan must not be defaulted, got %q", u.Subscription)
	}
}

func TestBillingService_Status_ProcessorWins(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	end := billingNow.AddDate(0, 0, 30)
	proc.put(activeSub("sub_1", "cus_1", monthlyPrice(t), end))

	st, err := svc.Status(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !st.IsActive || st.Plan != domain.PlanMonthly || !st.Expiry.Equal(end) {
		t.Fatalf("unexpected status: %+v", st)
	}
	if u := store.get("dana@example.com"); !u.HasActiveSubscription(billingNow) {
		t.Fatalf("status poll should refresh cached state, got %+v", u.BillingState)
	}
}

func TestBillingService_Status_ProcessorDownFallsBack(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	exp := billingNow.Add(-time.Hour)
	store.put(&domain.User{
		Email:            "dana@example.com",
		Role:             domain.RoleUser,
		StripeCustomerID: "cus_1",
		BillingState:     domain.BillingState{Subscription: domain.PlanWeekly, SubscriptionExpiry: &exp, Status: domain.StatusActive},
	})
	proc.failList = errors.New("connection refused")

	st, err := svc.Status(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if st.Status != domain.StatusExpired || st.IsActive {
		t.Fatalf("expected expired fallback, got %+v", st)
	}
}

func TestBillingService_Status_Admin(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	store.put(&domain.User{Email: "root@example.com", Role: domain.RoleAdmin, StripeCustomerID: "cus_1"})

	st, err := svc.Status(context.Background(), "root@example.com")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !st.IsActive || st.Plan != domain.RoleAdmin {
		t.Fatalf("unexpected admin status: %+v", st)
	}
	if proc.callCount() != 0 {
		t.Fatalf("admin status must not call the processor")
	}
}

func TestBillingService_Cancel(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	proc.put(activeSub("sub_1", "cus_1", monthlyPrice(t), billingNow.AddDate(0, 0, 30)))
	if _, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if err := svc.Cancel(context.Background(), "dana@example.com"); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	u := store.get("dana@example.com")
	if u.Subscription != domain.SubscriptionNone || u.SubscriptionExpiry != nil || u.Status != domain.StatusInactive {
		t.Fatalf("billing not cleared: %+v", u.BillingState)
	}
	if _, err := store.FindRecord(context.Background(), "dana@example.com"); !errors.Is(err, domain.ErrSubscriptionNotFound) {
		t.Fatalf("expected record removed, got %v", err)
	}

	if err := svc.Cancel(context.Background(), "dana@example.com"); !errors.Is(err, domain.ErrSubscriptionNotFound) {
		t.Fatalf("expected not found on second cancel, got %v", err)
	}
}

func TestBillingService_CancelThenStatusInactive(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	proc.put(activeSub("sub_1", "cus_1", monthlyPrice(t), billingNow.AddDate(0, 0, 30)))
	if _, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := svc.Cancel(context.Background(), "dana@example.com"); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	st, err := svc.Status(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if st.Status != domain.StatusInactive || st.Plan != domain.SubscriptionNone || st.IsActive || st.Expiry != nil {
		t.Fatalf("expected inactive/none after cancel, got %+v", st)
	}
}

func TestBillingService_Status_StalePeriodReportsStoredState(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	stored := billingNow.AddDate(0, 0, 60)
	store.put(&domain.User{
		Email:            "dana@example.com",
		Role:             domain.RoleUser,
		StripeCustomerID: "cus_1",
		BillingState:     domain.BillingState{Subscription: domain.PlanAnnual, SubscriptionExpiry: &stored, SubscriptionPrice: 1199, Status: domain.StatusActive},
	})
	proc.put(activeSub("sub_1", "cus_1", monthlyPrice(t), billingNow.AddDate(0, 0, 30)))

	st, err := svc.Status(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if st.Plan != domain.PlanAnnual || st.Expiry == nil || !st.Expiry.Equal(stored) || !st.IsActive {
		t.Fatalf("expected stored annual state, got %+v", st)
	}
	if u := store.get("dana@example.com"); u.Subscription != domain.PlanAnnual || !u.SubscriptionExpiry.Equal(stored) {
		t.Fatalf("stale period changed stored state: %+v", u.BillingState)
	}
}

func TestBillingService_Cancel_NoCustomer(t *testing.T) {
	svc, store, _ := newBillingFixture(t)
	seedUser(store, "dana@example.com", "")

	if err := svc.Cancel(context.Background(), "dana@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBillingService_Webhook_PaymentSucceeded(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	proc.put(activeSub("sub_1", "cus_1", monthlyPrice(t), billingNow.AddDate(0, 0, 30)))

	ev := ports.WebhookEvent{ID: "evt_1", Kind: ports.EventPaymentSucceeded, CustomerID: "cus_1", SubscriptionID: "sub_1"}
	if err := svc.HandleWebhookEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleWebhookEvent returned error: %v", err)
	}
	if u := store.get("dana@example.com"); !u.HasActiveSubscription(billingNow) {
		t.Fatalf("expected activation, got %+v", u.BillingState)
	}
}

func TestBillingService_Webhook_DuplicateSkipped(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	proc.put(activeSub("sub_1", "cus_1", monthlyPrice(t), billingNow.AddDate(0, 0, 30)))

	ev := ports.WebhookEvent{ID: "evt_1", Kind: ports.EventPaymentSucceeded, CustomerID: "cus_1", SubscriptionID: "sub_1"}
	if err := svc.HandleWebhookEvent(context.Background(), ev); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	calls := proc.callCount()
	if err := svc.HandleWebhookEvent(context.Background(), ev); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if proc.callCount() != calls {
		t.Fatalf("duplicate delivery reached the processor")
	}
}

func TestBillingService_Webhook_CustomerEmailFallback(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "")
	proc.customers["cus_9"] = "Dana@Example.com"
	proc.put(activeSub("sub_9", "cus_9", monthlyPrice(t), billingNow.AddDate(0, 0, 30)))

	ev := ports.WebhookEvent{ID: "evt_9", Kind: ports.EventPaymentSucceeded, CustomerID: "cus_9", SubscriptionID: "sub_9"}
	if err := svc.HandleWebhookEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleWebhookEvent returned error: %v", err)
	}
	u := store.get("dana@example.com")
	if u.StripeCustomerID != "cus_9" || !u.HasActiveSubscription(billingNow) {
		t.Fatalf("expected bound and active user, got %+v", u)
	}
}

func TestBillingService_Webhook_UnknownCustomerIgnored(t *testing.T) {
	svc, _, proc := newBillingFixture(t)
	proc.customers["cus_x"] = "ghost@example.com"

	ev := ports.WebhookEvent{ID: "evt_x", Kind: ports.EventSubscriptionDeleted, CustomerID: "cus_x", SubscriptionID: "sub_x"}
	if err := svc.HandleWebhookEvent(context.Background(), ev); err != nil {
		t.Fatalf("unknown customer should be ignored, got %v", err)
	}
}

func TestBillingService_Webhook_UpdatedInactiveRefreshesRecord(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	end := billingNow.AddDate(0, 0, 30)
	proc.put(activeSub("sub_1", "cus_1", monthlyPrice(t), end))
	if _, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	updated := activeSub("sub_1", "cus_1", monthlyPrice(t), end)
	updated.Status = "past_due"
	ev := ports.WebhookEvent{ID: "evt_2", Kind: ports.EventSubscriptionUpdated, CustomerID: "cus_1", SubscriptionID: "sub_1", Subscription: updated}
	if err := svc.HandleWebhookEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleWebhookEvent returned error: %v", err)
	}
	rec, err := store.FindRecord(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("FindRecord: %v", err)
	}
	if rec.Status != "past_due" {
		t.Fatalf("expected record status past_due, got %q", rec.Status)
	}
	if u := store.get("dana@example.com"); !u.HasActiveSubscription(billingNow) {
		t.Fatalf("paid period must be kept until expiry")
	}
}

func TestBillingService_Webhook_DeletedSupersededIgnored(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	proc.put(activeSub("sub_2", "cus_1", monthlyPrice(t), billingNow.AddDate(0, 0, 30)))
	if _, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_2"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	stale := ports.WebhookEvent{ID: "evt_old", Kind: ports.EventSubscriptionDeleted, CustomerID: "cus_1", SubscriptionID: "sub_1"}
	if err := svc.HandleWebhookEvent(context.Background(), stale); err != nil {
		t.Fatalf("HandleWebhookEvent returned error: %v", err)
	}
	if u := store.get("dana@example.com"); !u.HasActiveSubscription(billingNow) {
		t.Fatalf("deletion of an old subscription cancelled the current one")
	}

	current := ports.WebhookEvent{ID: "evt_new", Kind: ports.EventSubscriptionDeleted, CustomerID: "cus_1", SubscriptionID: "sub_2"}
	if err := svc.HandleWebhookEvent(context.Background(), current); err != nil {
		t.Fatalf("HandleWebhookEvent returned error: %v", err)
	}
	if u := store.get("dana@example.com"); u.Subscription != domain.SubscriptionNone {
		t.Fatalf("expected cancellation, got %+v", u.BillingState)
	}
}

func TestBillingService_ConcurrentActivationsConverge(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	early := billingNow.AddDate(0, 0, 7)
	late := billingNow.AddDate(0, 0, 30)
	proc.put(activeSub("sub_1", "cus_1", monthlyPrice(t), late))

	proc.put(activeSub("sub_0", "cus_1", monthlyPrice(t), early))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_1")
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_0")
		}()
	}
	wg.Wait()

	u := store.get("dana@example.com")
	if u.SubscriptionExpiry == nil || !u.SubscriptionExpiry.Equal(late) {
		t.Fatalf("expected expiry to converge on %v, got %v", late, u.SubscriptionExpiry)
	}
}

func TestBillingService_Webhook_IgnoredKind(t *testing.T) {
	svc, _, proc := newBillingFixture(t)
	if err := svc.HandleWebhookEvent(context.Background(), ports.WebhookEvent{ID: "evt", Kind: "charge.refunded"}); err != nil {
		t.Fatalf("expected ignore, got %v", err)
	}
	if proc.callCount() != 0 {
		t.Fatalf("ignored event reached the processor")
	}
}

func TestBillingService_Webhook_DeletedPaidWhileUpgradePending(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	proc.put(activeSub("sub_A", "cus_1", monthlyPrice(t), billingNow.AddDate(0, 0, 30)))
	if _, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_A"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	annual, err := domain.DefaultPlanCatalog().Get(domain.PlanAnnual)
	if err != nil {
		t.Fatalf("annual plan missing: %v", err)
	}
	if _, err := svc.CreateSubscription(context.Background(), "dana@example.com", annual.StripePriceID, "pm_1"); err != nil {
		t.Fatalf("CreateSubscription returned error: %v", err)
	}
	rec, err := store.FindRecord(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("FindRecord: %v", err)
	}
	if rec.SubscriptionID != "sub_A" || rec.Status != "active" {
		t.Fatalf("unpaid subscription replaced the live record: %+v", rec)
	}

	ev := ports.WebhookEvent{ID: "evt_del_A", Kind: ports.EventSubscriptionDeleted, CustomerID: "cus_1", SubscriptionID: "sub_A"}
	if err := svc.HandleWebhookEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleWebhookEvent returned error: %v", err)
	}
	u := store.get("dana@example.com")
	if u.Subscription != domain.SubscriptionNone || u.HasActiveSubscription(billingNow) {
		t.Fatalf("deleting the only paid subscription must cancel, got %+v", u.BillingState)
	}
}

func TestBillingService_Webhook_DeletedWithStalePendingRecordCancels(t *testing.T) {
	svc, store, _ := newBillingFixture(t)
	exp := billingNow.AddDate(0, 0, 30)
	store.put(&domain.User{
		Email:            "dana@example.com",
		Role:             domain.RoleUser,
		StripeCustomerID: "cus_1",
		BillingState:     domain.BillingState{Subscription: domain.PlanMonthly, SubscriptionExpiry: &exp, SubscriptionPrice: 99, Status: domain.StatusActive},
	})
	if err := store.SaveRecord(context.Background(), &domain.SubscriptionRecord{UserEmail: "dana@example.com", SubscriptionID: "sub_B", Status: "incomplete", Plan: domain.PlanAnnual}); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	ev := ports.WebhookEvent{ID: "evt_del_A", Kind: ports.EventSubscriptionDeleted, CustomerID: "cus_1", SubscriptionID: "sub_A"}
	if err := svc.HandleWebhookEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleWebhookEvent returned error: %v", err)
	}
	if u := store.get("dana@example.com"); u.Subscription != domain.SubscriptionNone {
		t.Fatalf("expected cancellation, got %+v", u.BillingState)
	}
}

func TestBillingService_Webhook_UpdatedPaidWhileUpgradePending(t *testing.T) {
	svc, store, proc := newBillingFixture(t)
	seedUser(store, "dana@example.com", "cus_1")
	end := billingNow.AddDate(0, 0, 30)
	proc.put(activeSub("sub_A", "cus_1", monthlyPrice(t), end))
	if _, err := svc.ConfirmPayment(context.Background(), "dana@example.com", "sub_A"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.CreateSubscription(context.Background(), "dana@example.com", monthlyPrice(t), "pm_1"); err != nil {
		t.Fatalf("CreateSubscription returned error: %v", err)
	}

	updated := activeSub("sub_A", "cus_1", monthlyPrice(t), end)
	updated.Status = "past_due"
	ev := ports.WebhookEvent{ID: "evt_upd_A", Kind: ports.EventSubscriptionUpdated, CustomerID: "cus_1", SubscriptionID: "sub_A", Subscription: updated}
	if err := svc.HandleWebhookEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleWebhookEvent returned error: %v", err)
	}
	rec, err := store.FindRecord(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("FindRecord: %v", err)
	}
	if rec.SubscriptionID != "sub_A" || rec.Status != "past_due" {
		t.Fatalf("expected sub_A past_due on record, got %+v", rec)
	}
}
