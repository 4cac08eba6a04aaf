package domain

import "time"

// SubscriptionRecord is the local cache of the processor's view of a user's
// subscription. At most one exists per user.
type SubscriptionRecord struct {
	UserEmail          string    `json:"-"`
	SubscriptionID     string    `json:"subscriptionId"`
	Status             string    `json:"status"`
	Plan               string    `json:"plan"`
	CurrentPeriodStart time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd"`
}

// Live reports whether the recorded subscription is paid up.
func (r *SubscriptionRecord) Live() bool {
	return r.Status == "active" || r.Status == "trialing"
}

// Activation is a processor-confirmed paid period for a plan.
type Activation struct {
	Plan            Plan
	SubscriptionID  string
	ProcessorStatus string
	PeriodStart     time.Time
	PeriodEnd       time.Time
}

// Record builds the SubscriptionRecord stored alongside an applied activation.
func (a Activation) Record(email string) *SubscriptionRecord {
	return &SubscriptionRecord{
		UserEmail:          email,
		SubscriptionID:     a.SubscriptionID,
		Status:             a.ProcessorStatus,
		Plan:               a.Plan.ID,
		CurrentPeriodStart: a.PeriodStart.UTC(),
		CurrentPeriodEnd:   a.PeriodEnd.UTC(),
	}
}

// Activate applies a paid period to the billing state. Expiry never moves
// backwards: an activation ending before the current expiry is stale and leaves
// the state untouched (returns false). Equal or later period ends are applied, so
// re-applying the same activation is a no-op in effect and the last arrival wins
// on ties.
func (b *BillingState) Activate(a Activation) bool {
	if b.SubscriptionExpiry != nil && a.PeriodEnd.Before(*b.SubscriptionExpiry) {
		return false
	}
	end := a.PeriodEnd.UTC()
	b.Subscription = a.Plan.ID
	b.SubscriptionPrice = a.Plan.Price
	b.SubscriptionExpiry = &end
	b.Status = StatusActive
	return true
}

// Cancel clears the subscription. Idempotent.
func (b *BillingState) Cancel() {
	b.Subscription = SubscriptionNone
	b.SubscriptionExpiry = nil
	b.SubscriptionPrice = 0
	b.Status = StatusInactive
}

// SubscriptionStatus is the display-ready derivation returned to clients.
type SubscriptionStatus struct {
	Status   string     `json:"status"`
	Plan     string     `json:"plan"`
	Expiry   *time.Time `json:"expiry"`
	IsActive bool       `json:"isActive"`
}

// LocalStatus derives the subscription status from cached fields only. A plan
// without an expiry counts as expired rather than failing.
func (u *User) LocalStatus(now time.Time) SubscriptionStatus {
	if u.IsAdmin() {
		return SubscriptionStatus{Status: StatusActive, Plan: RoleAdmin, Expiry: u.SubscriptionExpiry, IsActive: true}
	}
	if u.Subscription == "" || u.Subscription == SubscriptionNone {
		return SubscriptionStatus{Status: StatusInactive, Plan: SubscriptionNone}
	}
	if u.SubscriptionExpiry == nil || !u.SubscriptionExpiry.After(now) {
		return SubscriptionStatus{Status: StatusExpired, Plan: u.Subscription, Expiry: u.SubscriptionExpiry}
	}
	return SubscriptionStatus{Status: StatusActive, Plan: u.Subscription, Expiry: u.SubscriptionExpiry, IsActive: true}
}
