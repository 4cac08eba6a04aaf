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

type recordDoc struct {
	SubscriptionID     string    `bson:"subscription_id"`
	Status             string    `bson:"status"`
	Plan               string    `bson:"plan"`
	CurrentPeriodStart time.Time `bson:"current_period_start"`
	CurrentPeriodEnd   time.Time `bson:"current_period_end"`
}

func newRecordDoc(r *domain.SubscriptionRecord) *recordDoc {
	return &recordDoc{
		SubscriptionID:     r.SubscriptionID,
		Status:             r.Status,
		Plan:               r.Plan,
		CurrentPeriodStart: r.CurrentPeriodStart.UTC(),
		CurrentPeriodEnd:   r.CurrentPeriodEnd.UTC(),
	}
}

// SubscriptionRepository implements ports.SubscriptionRepository on the users
// collection; the record is embedded in the user document.
type SubscriptionRepository struct {
	col *mongo.Collection
}

func NewSubscriptionRepository(db *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{col: db.Collection(collectionUsers)}
}

func (r *SubscriptionRepository) FindRecord(ctx context.Context, email string) (*domain.SubscriptionRecord, error) {
	doc, err := r.find(ctx, email)
	if err != nil {
		return nil, err
	}
	if doc.Record == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	return &domain.SubscriptionRecord{
		UserEmail:          email,
		SubscriptionID:     doc.Record.SubscriptionID,
		Status:             doc.Record.Status,
		Plan:               doc.Record.Plan,
		CurrentPeriodStart: doc.Record.CurrentPeriodStart.UTC(),
		CurrentPeriodEnd:   doc.Record.CurrentPeriodEnd.UTC(),
	}, nil
}

// Activate is a conditional update: it only matches when the stored expiry is
// absent or not after the new period end, which keeps expiry monotonic without
// a read-modify-write.
func (r *SubscriptionRepository) Activate(ctx context.Context, email string, a domain.Activation) (domain.BillingState, bool, error) {
	end := a.PeriodEnd.UTC()
	filter := bson.M{
		"email": email,
		"$or": bson.A{
			bson.M{"subscription_expiry": nil},
			bson.M{"subscription_expiry": bson.M{"$lte": end}},
		},
	}
	update := bson.M{"$set": bson.M{
		"subscription":        a.Plan.ID,
		"subscription_price":  a.Plan.Price,
		"subscription_expiry": end,
		"status":              domain.StatusActive,
		"subscription_record": newRecordDoc(a.Record(email)),
	}}

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	res, err := r.col.UpdateOne(opCtx, filter, update)
	cancel()
	if err != nil {
		return domain.BillingState{}, false, fmt.Errorf("activate subscription: %w", err)
	}

	doc, err := r.find(ctx, email)
	if err != nil {
		return domain.BillingState{}, false, err
	}
	return doc.billingState(), res.MatchedCount > 0, nil
}

func (r *SubscriptionRepository) Cancel(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"email": email}, bson.M{
		"$set": bson.M{
			"subscription":        domain.SubscriptionNone,
			"subscription_expiry": nil,
			"subscription_price":  0,
			"status":              domain.StatusInactive,
		},
		"$unset": bson.M{"subscription_record": ""},
	})
	if err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *SubscriptionRepository) SaveRecord(ctx context.Context, record *domain.SubscriptionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"email": record.UserEmail},
		bson.M{"$set": bson.M{"subscription_record": newRecordDoc(record)}},
	)
	if err != nil {
		return fmt.Errorf("save subscription record: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *SubscriptionRepository) find(ctx context.Context, email string) (*userDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	opts := options.FindOne().SetProjection(bson.M{
		"email":               1,
		"subscription":        1,
		"subscription_expiry": 1,
		"subscription_price":  1,
		"status":              1,
		"subscription_record": 1,
	})
	if err := r.col.FindOne(ctx, bson.M{"email": email}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &doc, nil
}
