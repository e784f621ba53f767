package services

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/apperrors"
	"backchannel/internal/authz"
	"backchannel/internal/models"
	"backchannel/internal/repositories"
)

type ConversationService interface {
	Create(ctx context.Context, actor, participantID bson.ObjectID) (*models.Conversation, error)
	List(ctx context.Context, actor bson.ObjectID) ([]*models.Conversation, error)
	// Delete removes the whole conversation for both sides, not just the actor.
	Delete(ctx context.Context, actor, conversationID bson.ObjectID) error
}

type conversationService struct {
	conversations repositories.ConversationRepository
	users         repositories.UserRepository
	messages      repositories.MessageRepository

	cascadeDeleteMessages bool
}

func NewConversationService(
	conversations repositories.ConversationRepository,
	users repositories.UserRepository,
	messages repositories.MessageRepository,
	cascadeDeleteMessages bool,
) ConversationService {
	return &conversationService{
		conversations:         conversations,
		users:                 users,
		messages:              messages,
		cascadeDeleteMessages: cascadeDeleteMessages,
	}
}

func (s *conversationService) Create(ctx context.Context, actor, participantID bson.ObjectID) (*models.Conversation, error) {
	participant, err := s.users.GetByID(ctx, participantID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to look up participant")
	}
	if participant == nil {
		return nil, apperrors.NotFound("participant not found")
	}

	existing, err := s.conversations.GetByParticipants(ctx, actor, participantID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to check existing conversations")
	}
	if existing != nil {
		return nil, apperrors.Conflict("conversation already exists")
	}

	conversation := &models.Conversation{
		Participants: []bson.ObjectID{actor, participantID},
		IsGroup:      false,
	}
	if err := s.conversations.Create(ctx, conversation); err != nil {
		return nil, apperrors.Internal(err, "failed to create conversation")
	}
	return conversation, nil
}

func (s *conversationService) List(ctx context.Context, actor bson.ObjectID) ([]*models.Conversation, error) {
	conversations, err := s.conversations.ListForUser(ctx, actor)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list conversations")
	}
	return conversations, nil
}

func (s *conversationService) Delete(ctx context.Context, actor, conversationID bson.ObjectID) error {
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return apperrors.Internal(err, "failed to load conversation")
	}
	if conversation == nil {
		return apperrors.NotFound("conversation not found")
	}
	if perr := authz.CanAccessConversation(actor, conversation.Participants); perr != nil {
		return perr
	}
	if err := s.conversations.Delete(ctx, conversationID); err != nil {
		return apperrors.Internal(err, "failed to delete conversation")
	}
	if s.cascadeDeleteMessages {
		n, err := s.messages.DeleteByConversation(ctx, conversationID)
		if err != nil {
			log.Printf("[conversations][delete] warning: failed to cascade messages for conversation=%s: %v", conversationID.Hex(), err)
			return nil
		}
		log.Printf("[conversations][delete] conversation=%s removed, cascaded %d messages", conversationID.Hex(), n)
	}
	return nil
}
