package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

const collectionUsers = "users"

// userDoc is the persisted shape of a user. Billing fields, the subscription
// record and referral events live on the same document so each targeted
// mutation is a single atomic update.
type userDoc struct {
	ID                 string             `bson:"_id"`
	Email              string             `bson:"email"`
	FirstName          string             `bson:"first_name"`
	LastName           string             `bson:"last_name"`
	PasswordHash       string             `bson:"password_hash"`
	Phone              string             `bson:"phone"`
	CountryCode        string             `bson:"country_code"`
	Role               string             `bson:"role"`
	RegisteredAt       time.Time          `bson:"registered_at"`
	ReferralCode       string             `bson:"referral_code"`
	ReferralCodeUsed   string             `bson:"referral_code_used,omitempty"`
	TotalReferrals     int                `bson:"total_referrals"`
	ReferralEarnings   float64            `bson:"referral_earnings"`
	StripeCustomerID   string             `bson:"stripe_customer_id,omitempty"`
	Subscription       string             `bson:"subscription"`
	SubscriptionExpiry *time.Time         `bson:"subscription_expiry"`
	SubscriptionPrice  float64            `bson:"subscription_price"`
	Status             string             `bson:"status"`
	Stats              statsDoc           `bson:"stats"`
	Record             *recordDoc         `bson:"subscription_record,omitempty"`
	ReferralEvents     []referralEventDoc `bson:"referral_events,omitempty"`
}

type statsDoc struct {
	TotalLoads    int     `bson:"total_loads"`
	TotalRevenue  float64 `bson:"total_revenue"`
	TotalProfit   float64 `bson:"total_profit"`
	AverageMargin float64 `bson:"average_margin"`
}

type referralEventDoc struct {
	ReferredEmail string    `bson:"referred_email"`
	Date          time.Time `bson:"date"`
	Earnings      float64   `bson:"earnings"`
}

func newUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		PasswordHash:       u.PasswordHash,
		Phone:              u.Phone,
		CountryCode:        u.CountryCode,
		Role:               u.Role,
		RegisteredAt:       u.RegisteredAt.UTC(),
		ReferralCode:       u.ReferralCode,
		ReferralCodeUsed:   u.ReferralCodeUsed,
		TotalReferrals:     u.TotalReferrals,
		ReferralEarnings:   u.ReferralEarnings,
		StripeCustomerID:   u.StripeCustomerID,
		Subscription:       u.Subscription,
		SubscriptionExpiry: u.SubscriptionExpiry,
		SubscriptionPrice:  u.SubscriptionPrice,
		Status:             u.Status,
		Stats:              statsDoc(u.LoadStats),
	}
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:               d.ID,
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		Email:            d.Email,
		PasswordHash:     d.PasswordHash,
		Phone:            d.Phone,
		CountryCode:      d.CountryCode,
		Role:             d.Role,
		RegisteredAt:     d.RegisteredAt.UTC(),
		ReferralCode:     d.ReferralCode,
		ReferralCodeUsed: d.ReferralCodeUsed,
		TotalReferrals:   d.TotalReferrals,
		ReferralEarnings: d.ReferralEarnings,
		StripeCustomerID: d.StripeCustomerID,
		BillingState:     d.billingState(),
		LoadStats:        domain.LoadStats(d.Stats),
	}
}

func (d *userDoc) billingState() domain.BillingState {
	var exp *time.Time
	if d.SubscriptionExpiry != nil {
		t := d.SubscriptionExpiry.UTC()
		exp = &t
	}
	return domain.BillingState{
		Subscription:       d.Subscription,
		SubscriptionExpiry: exp,
		SubscriptionPrice:  d.SubscriptionPrice,
		Status:             d.Status,
	}
}

// UserRepository implements ports.UserRepository and ports.ReferralRepository.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, newUserDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"referral_code": code})
}

func (r *UserRepository) FindByCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"stripe_customer_id": customerID})
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "registered_at", Value: 1}}).
		SetProjection(bson.M{"referral_events": 0, "subscription_record": 0})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *UserRepository) SetCustomerID(ctx context.Context, email, customerID string) error {
	return r.updateOne(ctx, email, bson.M{"$set": bson.M{"stripe_customer_id": customerID}})
}

func (r *UserRepository) UpdateLoadStats(ctx context.Context, email string, stats domain.LoadStats) error {
	return r.updateOne(ctx, email, bson.M{"$set": bson.M{"stats": statsDoc(stats)}})
}

// Credit bumps the referrer's counters and appends the event in one update.
func (r *UserRepository) Credit(ctx context.Context, event domain.ReferralEvent) error {
	return r.updateOne(ctx, event.ReferrerEmail, bson.M{
		"$inc": bson.M{
			"total_referrals":   1,
			"referral_earnings": event.Earnings,
		},
		"$push": bson.M{"referral_events": referralEventDoc{
			ReferredEmail: event.ReferredEmail,
			Date:          event.Date.UTC(),
			Earnings:      event.Earnings,
		}},
	})
}

func (r *UserRepository) ListByReferrer(ctx context.Context, email string) ([]domain.ReferralEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	opts := options.FindOne().SetProjection(bson.M{"referral_events": 1, "email": 1})
	if err := r.col.FindOne(ctx, bson.M{"email": email}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find referrals: %w", err)
	}

	out := make([]domain.ReferralEvent, 0, len(doc.ReferralEvents))
	for _, e := range doc.ReferralEvents {
		out = append(out, domain.ReferralEvent{
			ReferrerEmail: email,
			ReferredEmail: e.ReferredEmail,
			Date:          e.Date.UTC(),
			Earnings:      e.Earnings,
		})
	}
	return out, nil
}

// EnsureIndexes creates the unique lookup indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "referral_code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "stripe_customer_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	opts := options.FindOne().SetProjection(bson.M{"referral_events": 0})
	if err := r.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) updateOne(ctx context.Context, email string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
