package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusExpired  = "expired"
)

// SubscriptionNone marks a user without any plan.
const SubscriptionNone = "none"

// DefaultCountryCode is applied when registration omits one.
const DefaultCountryCode = "+1"

// User models an account holder. Email is the identity key across the store.
type User struct {
	ID               string     `json:"id"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Phone            string     `json:"phone"`
	CountryCode      string     `json:"countryCode"`
	Role             string     `json:"role"`
	RegisteredAt     time.Time  `json:"registrationDate"`
	ReferralCode     string     `json:"userReferralCode"`
	ReferralCodeUsed string     `json:"referralCodeUsed"`
	TotalReferrals   int        `json:"totalReferrals"`
	ReferralEarnings float64    `json:"referralEarnings"`
	StripeCustomerID string     `json:"stripeCustomerId,omitempty"`
	BillingState
	LoadStats
}

// BillingState is the locally cached view of the user's subscription.
// Invariant: Subscription == SubscriptionNone iff SubscriptionExpiry == nil.
type BillingState struct {
	Subscription       string     `json:"subscription"`
	SubscriptionExpiry *time.Time `json:"subscriptionExpiry"`
	SubscriptionPrice  float64    `json:"subscriptionPrice"`
	Status             string     `json:"status"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the user is exempt from subscription gating.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasActiveSubscription evaluates the local-only subscription check used for gating.
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u.Subscription != "" &&
		u.Subscription != SubscriptionNone &&
		u.SubscriptionExpiry != nil &&
		u.SubscriptionExpiry.After(now)
}

// Clone returns a deep copy so callers never share the expiry pointer.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.SubscriptionExpiry != nil {
		exp := *u.SubscriptionExpiry
		c.SubscriptionExpiry = &exp
	}
	return &c
}

// NoSubscription is the billing state of a freshly registered user.
func NoSubscription() BillingState {
	return BillingState{Subscription: SubscriptionNone, Status: StatusInactive}
}
