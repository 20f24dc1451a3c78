package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

const (
	usersCollection    = "users"
	countersCollection = "counters"
	hdIndexCounterID   = "hd_index"
)

// AccountRepository implements ports.AccountRepository on the users collection.
type AccountRepository struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		users:    db.Collection(usersCollection),
		counters: db.Collection(countersCollection),
	}
}

type mongoUser struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	Email           string               `bson:"email"`
	Name            string               `bson:"name,omitempty"`
	PasswordHash    string               `bson:"password_hash"`
	Role            string               `bson:"role"`
	Credit          primitive.Decimal128 `bson:"credit"`
	APILevel        int                  `bson:"api_level"`
	APIToken        string               `bson:"api_token,omitempty"`
	APITokenExp     int64                `bson:"api_token_exp,omitempty"`
	HDIndex         int                  `bson:"hd_index"`
	DepositAddress  string               `bson:"deposit_address,omitempty"`
	PointsToConsume int                  `bson:"points_to_consume"`
	Duration        int                  `bson:"duration"`
	RateLimit       int                  `bson:"rate_limit"`
	Version         int64                `bson:"version"`
	CreatedAt       int64                `bson:"created_at"`
	UpdatedAt       int64                `bson:"updated_at"`
}

// EnsureIndexes creates the unique indexes on email and hd_index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "hd_index", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *AccountRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	doc, err := toMongoUser(user)
	if err != nil {
		return nil, err
	}
	doc.ID = primitive.NilObjectID
	doc.Version = 0

	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := user.Clone()
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	created.Version = 0
	return created, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	var mu mongoUser
	if err := r.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain()
}

// Save updates the ledger-owned fields in one UpdateOne guarded by version.
// On success user.Version is advanced to match the stored document.
func (r *AccountRepository) Save(ctx context.Context, user *domain.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return domain.ErrUserNotFound
	}
	credit, err := primitive.ParseDecimal128(domain.RoundCents(user.Credit).StringFixed(2))
	if err != nil {
		return fmt.Errorf("encode credit: %w", err)
	}

	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	filter := bson.M{"_id": oid, "version": user.Version}
	update := bson.M{
		"$set": bson.M{
			"credit":            credit,
			"api_level":         user.APILevel,
			"api_token":         user.APIToken,
			"api_token_exp":     timeToUnix(user.APITokenExp),
			"deposit_address":   user.DepositAddress,
			"points_to_consume": user.PointsToConsume,
			"duration":          user.Duration,
			"rate_limit":        user.RateLimit,
			"updated_at":        time.Now().UTC().Unix(),
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.users.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if n == 0 {
			return domain.ErrUserNotFound
		}
		return domain.ErrConflict
	}
	user.Version++
	return nil
}

// NextHDIndex hands out 0, 1, 2, ... from the counters collection.
func (r *AccountRepository) NextHDIndex(ctx context.Context) (int, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	var counter struct {
		Seq int `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": hdIndexCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate hd index: %w", err)
	}
	return counter.Seq - 1, nil
}

func toMongoUser(u *domain.User) (*mongoUser, error) {
	credit, err := primitive.ParseDecimal128(domain.RoundCents(u.Credit).StringFixed(2))
	if err != nil {
		return nil, fmt.Errorf("encode credit: %w", err)
	}
	doc := &mongoUser{
		Email:           u.Email,
		Name:            u.Name,
		PasswordHash:    u.PasswordHash,
		Role:            u.Role,
		Credit:          credit,
		APILevel:        u.APILevel,
		APIToken:        u.APIToken,
		APITokenExp:     timeToUnix(u.APITokenExp),
		HDIndex:         u.HDIndex,
		DepositAddress:  u.DepositAddress,
		PointsToConsume: u.PointsToConsume,
		Duration:        u.Duration,
		RateLimit:       u.RateLimit,
		Version:         u.Version,
		CreatedAt:       timeToUnix(u.CreatedAt),
		UpdatedAt:       timeToUnix(u.UpdatedAt),
	}
	if u.ID != "" {
		oid, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			return nil, fmt.Errorf("user id %q: %w", u.ID, err)
		}
		doc.ID = oid
	}
	return doc, nil
}

func (mu *mongoUser) toDomain() (*domain.User, error) {
	credit, err := decimal.NewFromString(mu.Credit.String())
	if err != nil {
		return nil, fmt.Errorf("decode credit of %s: %w", mu.ID.Hex(), err)
	}
	return &domain.User{
		ID:              mu.ID.Hex(),
		Email:           mu.Email,
		Name:            mu.Name,
		PasswordHash:    mu.PasswordHash,
		Role:            mu.Role,
		CreatedAt:       unixToTime(mu.CreatedAt),
		UpdatedAt:       unixToTime(mu.UpdatedAt),
		Credit:          credit,
		APILevel:        mu.APILevel,
		APIToken:        mu.APIToken,
		APITokenExp:     unixToTime(mu.APITokenExp),
		HDIndex:         mu.HDIndex,
		DepositAddress:  mu.DepositAddress,
		PointsToConsume: mu.PointsToConsume,
		Duration:        mu.Duration,
		RateLimit:       mu.RateLimit,
		Version:         mu.Version,
	}, nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

func timeToUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
