package service

import (
	"context"
	"errors"
	"sync"

	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

// ----- Stubs -----

// stubStore backs users, referrals and subscription records with maps.
type stubStore struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	records   map[string]*domain.SubscriptionRecord
	referrals []domain.ReferralEvent
	creditErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		users:   make(map[string]*domain.User),
		records: make(map[string]*domain.SubscriptionRecord),
	}
}

func (s *stubStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return domain.ErrUserExists
	}
	s.users[user.Email] = user.Clone()
	return nil
}

func (s *stubStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *stubStore) FindByReferralCode(_ context.Context, code string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ReferralCode == code {
			return u.Clone(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubStore) FindByCustomerID(_ context.Context, customerID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.StripeCustomerID == customerID {
			return u.Clone(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubStore) List(_ context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Clone())
	}
	return out, nil
}

func (s *stubStore) SetCustomerID(_ context.Context, email, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.StripeCustomerID = customerID
	return nil
}

func (s *stubStore) UpdateLoadStats(_ context.Context, email string, stats domain.LoadStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LoadStats = stats
	return nil
}

func (s *stubStore) Credit(_ context.Context, event domain.ReferralEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creditErr != nil {
		return s.creditErr
	}
	u, ok := s.users[event.ReferrerEmail]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.TotalReferrals++
	u.ReferralEarnings += event.Earnings
	s.referrals = append(s.referrals, event)
	return nil
}

func (s *stubStore) ListByReferrer(_ context.Context, email string) ([]domain.ReferralEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ReferralEvent
	for _, e := range s.referrals {
		if e.ReferrerEmail == email {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubStore) FindRecord(_ context.Context, email string) (*domain.SubscriptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[email]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	c := *r
	return &c, nil
}

func (s *stubStore) Activate(_ context.Context, email string, a domain.Activation) (domain.BillingState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return domain.BillingState{}, false, domain.ErrUserNotFound
	}
	if !u.BillingState.Activate(a) {
		return u.Clone().BillingState, false, nil
	}
	s.records[email] = a.Record(email)
	return u.Clone().BillingState, true, nil
}

func (s *stubStore) Cancel(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.BillingState.Cancel()
	delete(s.records, email)
	return nil
}

func (s *stubStore) SaveRecord(_ context.Context, record *domain.SubscriptionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *record
	s.records[record.UserEmail] = &c
	return nil
}

func (s *stubStore) put(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Email] = u.Clone()
}

func (s *stubStore) get(email string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[email].Clone()
}

type stubProcessor struct {
	mu            sync.Mutex
	subs          map[string]*ports.ProcessorSubscription
	customers     map[string]string
	nextCustomer  string
	failCreate    error
	failList      error
	calls         []string
	cancelled     []string
	createdPrices []string
}

func newStubProcessor() *stubProcessor {
	return &stubProcessor{
		subs:         make(map[string]*ports.ProcessorSubscription),
		customers:    make(map[string]string),
		nextCustomer: "cus_new",
	}
}

func (p *stubProcessor) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *stubProcessor) CreateCustomer(_ context.Context, in ports.CreateCustomerInput) (string, error) {
	p.record("CreateCustomer")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customers[p.nextCustomer] = in.Email
	return p.nextCustomer, nil
}

func (p *stubProcessor) CustomerEmail(_ context.Context, customerID string) (string, error) {
	p.record("CustomerEmail")
	p.mu.Lock()
	defer p.mu.Unlock()
	email, ok := p.customers[customerID]
	if !ok {
		return "", errors.New("no such customer")
	}
	return email, nil
}

func (p *stubProcessor) AttachPaymentMethod(context.Context, string, string) error {
	p.record("AttachPaymentMethod")
	return nil
}

func (p *stubProcessor) SetDefaultPaymentMethod(context.Context, string, string) error {
	p.record("SetDefaultPaymentMethod")
	return nil
}

func (p *stubProcessor) CreateSubscription(_ context.Context, in ports.CreateSubscriptionInput) (*ports.ProcessorSubscription, error) {
	p.record("CreateSubscription")
	if p.failCreate != nil {
		return nil, p.failCreate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createdPrices = append(p.createdPrices, in.PriceID)
	sub := &ports.ProcessorSubscription{
		ID:           "sub_created",
		CustomerID:   in.CustomerID,
		Status:       "incomplete",
		PriceID:      in.PriceID,
		MetadataPlan: in.Plan,
		ClientSecret: "pi_secret",
	}
	p.subs[sub.ID] = sub
	c := *sub
	return &c, nil
}

func (p *stubProcessor) GetSubscription(_ context.Context, id string) (*ports.ProcessorSubscription, error) {
	p.record("GetSubscription")
	p.mu.Lock()
	defer p.mu.Unlock()
	sub, ok := p.subs[id]
	if !ok {
		return nil, errors.New("no such subscription")
	}
	c := *sub
	return &c, nil
}

func (p *stubProcessor) FindActiveSubscription(_ context.Context, customerID string) (*ports.ProcessorSubscription, error) {
	p.record("FindActiveSubscription")
	if p.failList != nil {
		return nil, p.failList
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sub := range p.subs {
		if sub.CustomerID == customerID && sub.Status == "active" {
			c := *sub
			return &c, nil
		}
	}
	return nil, nil
}

func (p *stubProcessor) CancelSubscription(_ context.Context, id string) error {
	p.record("CancelSubscription")
	p.mu.Lock()
	defer p.mu.Unlock()
	if sub, ok := p.subs[id]; ok {
		sub.Status = "canceled"
	}
	p.cancelled = append(p.cancelled, id)
	return nil
}

func (p *stubProcessor) ParseWebhook([]byte, string) (*ports.WebhookEvent, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProcessor) put(sub *ports.ProcessorSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := *sub
	p.subs[sub.ID] = &c
}

func (p *stubProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type stubDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newStubDedup() *stubDedup {
	return &stubDedup{seen: make(map[string]bool)}
}

func (d *stubDedup) IsDuplicate(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[id], nil
}

func (d *stubDedup) Mark(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[id] = true
	return nil
}

type stubLoadRepo struct {
	mu    sync.Mutex
	loads map[string][]*domain.Load
}

func newStubLoadRepo() *stubLoadRepo {
	return &stubLoadRepo{loads: make(map[string][]*domain.Load)}
}

func (r *stubLoadRepo) Append(_ context.Context, load *domain.Load) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads[load.UserEmail] = append(r.loads[load.UserEmail], load)
	return nil
}

func (r *stubLoadRepo) ListByUser(_ context.Context, email string) ([]*domain.Load, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Load(nil), r.loads[email]...), nil
}

type stubReminderRepo struct {
	reminders []*domain.Reminder
}

func (r *stubReminderRepo) Create(_ context.Context, reminder *domain.Reminder) error {
	r.reminders = append(r.reminders, reminder)
	return nil
}

func (r *stubReminderRepo) ListByUser(_ context.Context, email string) ([]*domain.Reminder, error) {
	var out []*domain.Reminder
	for _, rem := range r.reminders {
		if rem.UserEmail == email {
			out = append(out, rem)
		}
	}
	return out, nil
}

type stubNotifier struct {
	published []*domain.Reminder
	err       error
}

func (n *stubNotifier) ReminderCreated(_ context.Context, r *domain.Reminder) error {
	if n.err != nil {
		return n.err
	}
	n.published = append(n.published, r)
	return nil
}
