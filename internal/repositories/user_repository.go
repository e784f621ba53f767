package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"backchannel/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id bson.ObjectID) error
	List(ctx context.Context, limit, offset int64) ([]*models.User, error)

	// refresh helpers
	UpdateRefresh(ctx context.Context, userID bson.ObjectID, token string, expiresAt time.Time) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	ClearRefresh(ctx context.Context, userID bson.ObjectID) error

	// password reset helpers
	SetResetToken(ctx context.Context, userID bson.ObjectID, token string, expiresAt time.Time) error
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID bson.ObjectID, passwordHash string) error
}

type userRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{coll: db.Collection("users")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"email":     user.Email,
		"role":      user.Role,
		"isActive":  user.IsActive,
		"updatedAt": user.UpdatedAt,
	}})
	return err
}

func (r *userRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *userRepository) List(ctx context.Context, limit, offset int64) ([]*models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var users []*models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateRefresh(ctx context.Context, userID bson.ObjectID, token string, expiresAt time.Time) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"refreshToken":     token,
		"refreshExpiresAt": expiresAt,
	}})
	return err
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"refreshToken": token})
}

func (r *userRepository) ClearRefresh(ctx context.Context, userID bson.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$unset": bson.M{
		"refreshToken":     "",
		"refreshExpiresAt": "",
	}})
	return err
}

func (r *userRepository) SetResetToken(ctx context.Context, userID bson.ObjectID, token string, expiresAt time.Time) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"resetToken":     token,
		"resetExpiresAt": expiresAt,
	}})
	return err
}

func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"resetToken": token})
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID bson.ObjectID, passwordHash string) error {
	now := time.Now()
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{
			"passwordHash":      passwordHash,
			"passwordChangedAt": now,
			"updatedAt":         now,
		},
		"$unset": bson.M{"resetToken": "", "resetExpiresAt": ""},
	})
	return err
}
