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

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id bson.ObjectID) (*models.Message, error)
	ListByChannel(ctx context.Context, channelID bson.ObjectID) ([]*models.Message, error)
	ListByConversation(ctx context.Context, conversationID bson.ObjectID) ([]*models.Message, error)
	// UpdateContent mutates message content and flips the edited markers.
	UpdateContent(ctx context.Context, id bson.ObjectID, content string, editedAt time.Time) error
	Delete(ctx context.Context, id bson.ObjectID) error

	// read tracking; both return the number of documents actually modified
	MarkRead(ctx context.Context, ids []bson.ObjectID, userID bson.ObjectID) (int64, error)
	MarkChannelRead(ctx context.Context, channelID, userID bson.ObjectID) (int64, error)

	// cascade helpers for channel/conversation deletion
	DeleteByChannel(ctx context.Context, channelID bson.ObjectID) (int64, error)
	DeleteByConversation(ctx context.Context, conversationID bson.ObjectID) (int64, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{coll: db.Collection("messages")}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	now := time.Now()
	message.CreatedAt = now
	message.UpdatedAt = now
	if message.ReadBy == nil {
		message.ReadBy = []bson.ObjectID{}
	}
	res, err := r.coll.InsertOne(ctx, message)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		message.ID = id
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.Message, error) {
	var message models.Message
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&message)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) list(ctx context.Context, filter bson.M) ([]*models.Message, error) {
	// fetch order is createdAt ascending
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var messages []*models.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) ListByChannel(ctx context.Context, channelID bson.ObjectID) ([]*models.Message, error) {
	return r.list(ctx, bson.M{"channel": channelID})
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID bson.ObjectID) ([]*models.Message, error) {
	return r.list(ctx, bson.M{"conversation": conversationID})
}

func (r *messageRepository) UpdateContent(ctx context.Context, id bson.ObjectID, content string, editedAt time.Time) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"content":   content,
		"isEdited":  true,
		"editedAt":  editedAt,
		"updatedAt": editedAt,
	}})
	return err
}

func (r *messageRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// MarkRead adds the user to readBy on every listed message that does not
// carry it yet. The readBy filter makes the call idempotent: re-marking a
// read message matches nothing.
func (r *messageRepository) MarkRead(ctx context.Context, ids []bson.ObjectID, userID bson.ObjectID) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "readBy": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"readBy": userID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *messageRepository) MarkChannelRead(ctx context.Context, channelID, userID bson.ObjectID) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"channel": channelID, "readBy": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"readBy": userID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *messageRepository) DeleteByChannel(ctx context.Context, channelID bson.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"channel": channelID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *messageRepository) DeleteByConversation(ctx context.Context, conversationID bson.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"conversation": conversationID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
