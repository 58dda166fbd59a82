package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	UserType     string    `bson:"user_type"`
	LeaveBalance float64   `bson:"leave_balance"`
	Salary       float64   `bson:"salary"`
	LockVersion  int64     `bson:"lock_version"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d userDocument) toEntity() user.User {
	return user.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		UserType:     user.UserType(d.UserType),
		LeaveBalance: d.LeaveBalance,
		Salary:       d.Salary,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type userRepository struct {
	collection *mongo.Collection
	resets     *mongo.Collection
}

func NewUserRepository(db *database.MongoDB) user.UserRepository {
	return &userRepository{
		collection: db.Collection(database.CollectionUsers),
		resets:     db.Collection(database.CollectionBalanceResets),
	}
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (user.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toEntity(), nil
}

// Create implements user.UserRepository.
func (r *userRepository) Create(ctx context.Context, newUser user.User) (user.User, error) {
	now := time.Now().UTC()
	doc := userDocument{
		ID:           newUser.ID,
		Name:         newUser.Name,
		Email:        newUser.Email,
		PasswordHash: newUser.PasswordHash,
		UserType:     string(newUser.UserType),
		LeaveBalance: newUser.LeaveBalance,
		Salary:       newUser.Salary,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrUserEmailExists
		}
		return user.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return doc.toEntity(), nil
}

// GetByEmail implements user.UserRepository.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByID implements user.UserRepository.
func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// List implements user.UserRepository.
func (r *userRepository) List(ctx context.Context, filter user.UserFilter) ([]user.User, int64, error) {
	query := bson.M{}
	if filter.UserType != nil && *filter.UserType != "" {
		query["user_type"] = *filter.UserType
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	users, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListAll implements user.UserRepository.
func (r *userRepository) ListAll(ctx context.Context) ([]user.User, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
}

func (r *userRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]user.User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]user.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toEntity())
	}
	return users, nil
}

// Count implements user.UserRepository.
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// LockForUpdate writes to the user document so concurrent transactions touching the
// same user conflict and are retried one after another.
func (r *userRepository) LockForUpdate(ctx context.Context, id string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"lock_version": 1}})
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	if res.MatchedCount == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// DecrementLeaveBalance implements user.UserRepository.
func (r *userRepository) DecrementLeaveBalance(ctx context.Context, userID string, days float64) (float64, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"leave_balance": bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$leave_balance", days}}}},
			"updated_at":    "$$NOW",
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before userDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&before); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, user.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to decrement leave balance: %w", err)
	}
	return before.LeaveBalance, nil
}

// IncrementLeaveBalance implements user.UserRepository.
func (r *userRepository) IncrementLeaveBalance(ctx context.Context, userID string, days float64) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"leave_balance": days}, "$currentDate": bson.M{"updated_at": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment leave balance: %w", err)
	}
	if res.MatchedCount == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ResetLeaveBalances implements user.UserRepository.
func (r *userRepository) ResetLeaveBalances(ctx context.Context, days float64, year int) (int64, error) {
	// The year is the _id, so a second reset for it is a duplicate key.
	if _, err := r.resets.InsertOne(ctx, bson.M{"_id": year, "allowance": days, "reset_at": time.Now().UTC()}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, user.ErrBalancesAlreadyReset
		}
		return 0, fmt.Errorf("failed to record leave balance reset: %w", err)
	}

	res, err := r.collection.UpdateMany(ctx,
		bson.M{"user_type": string(user.UserTypeEmployee)},
		bson.M{"$set": bson.M{"leave_balance": days}, "$currentDate": bson.M{"updated_at": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset leave balances: %w", err)
	}

	if _, err := r.resets.UpdateByID(ctx, year, bson.M{"$set": bson.M{"users_reset": res.MatchedCount}}); err != nil {
		return 0, fmt.Errorf("failed to record leave balance reset: %w", err)
	}
	return res.MatchedCount, nil
}
