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

type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, id bson.ObjectID) (*models.Conversation, error)
	// GetByParticipants finds the one-to-one conversation holding both users.
	GetByParticipants(ctx context.Context, a, b bson.ObjectID) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID bson.ObjectID) ([]*models.Conversation, error)
	Delete(ctx context.Context, id bson.ObjectID) error
}

type conversationRepository struct {
	coll *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{coll: db.Collection("conversations")}
}

func (r *conversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, conversation)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		conversation.ID = id
	}
	return nil
}

func (r *conversationRepository) findOne(ctx context.Context, filter bson.M) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.coll.FindOne(ctx, filter).Decode(&conversation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.Conversation, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *conversationRepository) GetByParticipants(ctx context.Context, a, b bson.ObjectID) (*models.Conversation, error) {
	return r.findOne(ctx, bson.M{
		"participants": bson.M{"$all": bson.A{a, b}},
		"isGroup":      false,
	})
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID bson.ObjectID) ([]*models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"participants": userID, "isGroup": false}, opts)
	if err != nil {
		return nil, err
	}
	var conversations []*models.Conversation
	if err := cur.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *conversationRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
