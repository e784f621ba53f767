package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"backchannel/internal/authz"
	"backchannel/internal/models"
)

type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id bson.ObjectID) (*models.Channel, error)
	GetByName(ctx context.Context, name string) (*models.Channel, error)
	// ListVisible returns public channels plus those the user is a member of.
	ListVisible(ctx context.Context, userID bson.ObjectID) ([]*models.Channel, error)
	UpdateDetails(ctx context.Context, id bson.ObjectID, fields bson.M) error
	Delete(ctx context.Context, id bson.ObjectID) error

	// membership mutations, each a single document-level update
	AddMember(ctx context.Context, channelID bson.ObjectID, member models.ChannelMember) error
	RemoveMember(ctx context.Context, channelID, userID bson.ObjectID) error
	SetMemberRole(ctx context.Context, channelID, userID bson.ObjectID, role authz.ChannelRole) error
	TouchLastSeen(ctx context.Context, channelID, userID bson.ObjectID, t time.Time) error
}

type channelRepository struct {
	coll *mongo.Collection
}

func NewChannelRepository(db *mongo.Database) ChannelRepository {
	return &channelRepository{coll: db.Collection("channels")}
}

func (r *channelRepository) Create(ctx context.Context, channel *models.Channel) error {
	res, err := r.coll.InsertOne(ctx, channel)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		channel.ID = id
	}
	return nil
}

func (r *channelRepository) findOne(ctx context.Context, filter bson.M) (*models.Channel, error) {
	var channel models.Channel
	err := r.coll.FindOne(ctx, filter).Decode(&channel)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *channelRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.Channel, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *channelRepository) GetByName(ctx context.Context, name string) (*models.Channel, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *channelRepository) ListVisible(ctx context.Context, userID bson.ObjectID) ([]*models.Channel, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"isPrivate": false},
		bson.M{"members.user": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var channels []*models.Channel
	if err := cur.All(ctx, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

func (r *channelRepository) UpdateDetails(ctx context.Context, id bson.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now()
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	return err
}

func (r *channelRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *channelRepository) AddMember(ctx context.Context, channelID bson.ObjectID, member models.ChannelMember) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": channelID}, bson.M{
		"$push": bson.M{"members": member},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
	return err
}

func (r *channelRepository) RemoveMember(ctx context.Context, channelID, userID bson.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": channelID}, bson.M{
		"$pull": bson.M{"members": bson.M{"user": userID}},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
	return err
}

// SetMemberRole uses the positional operator to mutate one member entry in
// place, leaving the rest of the array untouched.
func (r *channelRepository) SetMemberRole(ctx context.Context, channelID, userID bson.ObjectID, role authz.ChannelRole) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": channelID, "members.user": userID},
		bson.M{"$set": bson.M{
			"members.$.role": role,
			"updatedAt":      time.Now(),
		}},
	)
	return err
}

func (r *channelRepository) TouchLastSeen(ctx context.Context, channelID, userID bson.ObjectID, t time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": channelID, "members.user": userID},
		bson.M{"$set": bson.M{"members.$.lastSeen": t}},
	)
	return err
}
