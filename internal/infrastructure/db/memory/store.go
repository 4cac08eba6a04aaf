// Package memory is the in-process store used when no database is configured.
// Every mutation happens under a single lock so targeted updates (billing,
// stats, referral credit) never interleave for the same user.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

// Store holds all collections. Use the accessor methods to obtain the
// repository views the services expect.
type Store struct {
	mu         sync.RWMutex
	users      map[string]*domain.User
	byCode     map[string]string
	byCustomer map[string]string
	records    map[string]*domain.SubscriptionRecord
	loads      map[string][]*domain.Load
	reminders  map[string][]*domain.Reminder
	referrals  map[string][]domain.ReferralEvent
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]*domain.User),
		byCode:     make(map[string]string),
		byCustomer: make(map[string]string),
		records:    make(map[string]*domain.SubscriptionRecord),
		loads:      make(map[string][]*domain.Load),
		reminders:  make(map[string][]*domain.Reminder),
		referrals:  make(map[string][]domain.ReferralEvent),
	}
}

func (s *Store) Users() *UserRepository                 { return &UserRepository{s: s} }
func (s *Store) Referrals() *ReferralRepository         { return &ReferralRepository{s: s} }
func (s *Store) Subscriptions() *SubscriptionRepository { return &SubscriptionRepository{s: s} }
func (s *Store) Loads() *LoadRepository                 { return &LoadRepository{s: s} }
func (s *Store) Reminders() *ReminderRepository         { return &ReminderRepository{s: s} }

// Ping always succeeds; it lets the store join readiness checks.
func (s *Store) Ping(context.Context) error { return nil }

// ----- Users -----

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.Email]; ok {
		return domain.ErrUserExists
	}
	r.s.users[user.Email] = user.Clone()
	if user.ReferralCode != "" {
		r.s.byCode[user.ReferralCode] = user.Email
	}
	if user.StripeCustomerID != "" {
		r.s.byCustomer[user.StripeCustomerID] = user.Email
	}
	return nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) FindByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	r.s.mu.RLock()
	email, ok := r.s.byCode[code]
	r.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.FindByEmail(ctx, email)
}

func (r *UserRepository) FindByCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	r.s.mu.RLock()
	email, ok := r.s.byCustomer[customerID]
	r.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.FindByEmail(ctx, email)
}

// List returns users ordered by registration time.
func (r *UserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].Email < out[j].Email
		}
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out, nil
}

func (r *UserRepository) SetCustomerID(_ context.Context, email, customerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.StripeCustomerID != "" {
		delete(r.s.byCustomer, u.StripeCustomerID)
	}
	u.StripeCustomerID = customerID
	r.s.byCustomer[customerID] = email
	return nil
}

func (r *UserRepository) UpdateLoadStats(_ context.Context, email string, stats domain.LoadStats) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LoadStats = stats
	return nil
}

// ----- Referrals -----

type ReferralRepository struct{ s *Store }

func (r *ReferralRepository) Credit(_ context.Context, event domain.ReferralEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[event.ReferrerEmail]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.TotalReferrals++
	u.ReferralEarnings += event.Earnings
	r.s.referrals[event.ReferrerEmail] = append(r.s.referrals[event.ReferrerEmail], event)
	return nil
}

func (r *ReferralRepository) ListByReferrer(_ context.Context, email string) ([]domain.ReferralEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.ReferralEvent{}, r.s.referrals[email]...), nil
}

// ----- Subscriptions -----

type SubscriptionRepository struct{ s *Store }

func (r *SubscriptionRepository) FindRecord(_ context.Context, email string) (*domain.SubscriptionRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.records[email]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	c := *rec
	return &c, nil
}

func (r *SubscriptionRepository) Activate(_ context.Context, email string, a domain.Activation) (domain.BillingState, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[email]
	if !ok {
		return domain.BillingState{}, false, domain.ErrUserNotFound
	}
	applied := u.BillingState.Activate(a)
	if applied {
		r.s.records[email] = a.Record(email)
	}
	return u.Clone().BillingState, applied, nil
}

func (r *SubscriptionRepository) Cancel(_ context.Context, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.BillingState.Cancel()
	delete(r.s.records, email)
	return nil
}

func (r *SubscriptionRepository) SaveRecord(_ context.Context, record *domain.SubscriptionRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[record.UserEmail]; !ok {
		return domain.ErrUserNotFound
	}
	c := *record
	r.s.records[record.UserEmail] = &c
	return nil
}

// ----- Loads -----

type LoadRepository struct{ s *Store }

func (r *LoadRepository) Append(_ context.Context, load *domain.Load) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *load
	r.s.loads[load.UserEmail] = append(r.s.loads[load.UserEmail], &c)
	return nil
}

func (r *LoadRepository) ListByUser(_ context.Context, email string) ([]*domain.Load, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.loads[email]
	out := make([]*domain.Load, len(src))
	for i, l := range src {
		c := *l
		out[i] = &c
	}
	return out, nil
}

// ----- Reminders -----

type ReminderRepository struct{ s *Store }

func (r *ReminderRepository) Create(_ context.Context, reminder *domain.Reminder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *reminder
	r.s.reminders[reminder.UserEmail] = append(r.s.reminders[reminder.UserEmail], &c)
	return nil
}

func (r *ReminderRepository) ListByUser(_ context.Context, email string) ([]*domain.Reminder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.reminders[email]
	out := make([]*domain.Reminder, len(src))
	for i, rem := range src {
		c := *rem
		out[i] = &c
	}
	return out, nil
}
