package services

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/apperrors"
	"backchannel/internal/authz"
	"backchannel/internal/models"
	"backchannel/internal/repositories"
)

// MessageService covers channel and conversation messaging plus the
// read-tracking engine (readBy sets and per-member lastSeen).
type MessageService interface {
	SendToChannel(ctx context.Context, actor, channelID bson.ObjectID, content string, attachments []models.Attachment) (*models.Message, error)
	// ChannelMessages returns the channel history in createdAt order, marking
	// every returned message as read by the actor before the response.
	ChannelMessages(ctx context.Context, actor, channelID bson.ObjectID) ([]*models.Message, error)
	SendToConversation(ctx context.Context, actor, conversationID bson.ObjectID, content string, attachments []models.Attachment) (*models.Message, error)
	ConversationMessages(ctx context.Context, actor, conversationID bson.ObjectID) ([]*models.Message, error)

	Edit(ctx context.Context, actor, messageID bson.ObjectID, content string) (*models.Message, error)
	Delete(ctx context.Context, actor, messageID bson.ObjectID) error

	// MarkRead bulk-marks the given messages; reports how many were newly
	// marked, or a NotModified error when nothing matched.
	MarkRead(ctx context.Context, actor bson.ObjectID, messageIDs []bson.ObjectID) (int64, error)
}

type messageService struct {
	messages      repositories.MessageRepository
	channels      repositories.ChannelRepository
	conversations repositories.ConversationRepository
}

func NewMessageService(
	messages repositories.MessageRepository,
	channels repositories.ChannelRepository,
	conversations repositories.ConversationRepository,
) MessageService {
	return &messageService{
		messages:      messages,
		channels:      channels,
		conversations: conversations,
	}
}

func (s *messageService) loadChannel(ctx context.Context, channelID bson.ObjectID) (*models.Channel, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load channel")
	}
	if channel == nil {
		return nil, apperrors.NotFound("channel not found")
	}
	return channel, nil
}

// recordActivity bumps the member's lastSeen. Callers have already checked
// membership; a failure here never fails the request.
func (s *messageService) recordActivity(ctx context.Context, channelID, userID bson.ObjectID) {
	if err := s.channels.TouchLastSeen(ctx, channelID, userID, time.Now()); err != nil {
		log.Printf("[messages] warning: failed to update lastSeen channel=%s user=%s: %v",
			channelID.Hex(), userID.Hex(), err)
	}
}

func (s *messageService) SendToChannel(ctx context.Context, actor, channelID bson.ObjectID, content string, attachments []models.Attachment) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.BadRequest("message content cannot be empty")
	}
	channel, err := s.loadChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if perr := authz.CanSendChannelMessage(actor, channel.AuthState()); perr != nil {
		return nil, perr
	}

	message := &models.Message{
		Sender:      actor,
		Content:     strings.TrimSpace(content),
		Channel:     &channelID,
		Attachments: attachments,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperrors.Internal(err, "failed to send message")
	}
	s.recordActivity(ctx, channelID, actor)
	return message, nil
}

func (s *messageService) ChannelMessages(ctx context.Context, actor, channelID bson.ObjectID) ([]*models.Message, error) {
	channel, err := s.loadChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if perr := authz.CanReadChannel(actor, channel.AuthState()); perr != nil {
		return nil, perr
	}

	s.recordActivity(ctx, channelID, actor)

	// one bulk update before the fetch so the returned set already carries
	// the actor in readBy
	if _, err := s.messages.MarkChannelRead(ctx, channelID, actor); err != nil {
		return nil, apperrors.Internal(err, "failed to mark messages as read")
	}
	messages, err := s.messages.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to retrieve messages")
	}
	return messages, nil
}

func (s *messageService) SendToConversation(ctx context.Context, actor, conversationID bson.ObjectID, content string, attachments []models.Attachment) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.BadRequest("message content cannot be empty")
	}
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load conversation")
	}
	if conversation == nil {
		return nil, apperrors.NotFound("conversation not found")
	}
	if perr := authz.CanAccessConversation(actor, conversation.Participants); perr != nil {
		return nil, perr
	}

	message := &models.Message{
		Sender:       actor,
		Content:      strings.TrimSpace(content),
		Conversation: &conversationID,
		Attachments:  attachments,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperrors.Internal(err, "failed to send message")
	}
	return message, nil
}

func (s *messageService) ConversationMessages(ctx context.Context, actor, conversationID bson.ObjectID) ([]*models.Message, error) {
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load conversation")
	}
	if conversation == nil {
		return nil, apperrors.NotFound("conversation not found")
	}
	if perr := authz.CanAccessConversation(actor, conversation.Participants); perr != nil {
		return nil, perr
	}
	messages, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to retrieve messages")
	}
	return messages, nil
}

// Edit mutates content; the edited markers are set here and only here, so a
// freshly created message never carries them.
func (s *messageService) Edit(ctx context.Context, actor, messageID bson.ObjectID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.BadRequest("message content cannot be empty")
	}
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load message")
	}
	if message == nil {
		return nil, apperrors.NotFound("message not found")
	}
	if perr := authz.CanEditMessage(actor, message.Sender); perr != nil {
		return nil, perr
	}

	editedAt := time.Now()
	if err := s.messages.UpdateContent(ctx, messageID, strings.TrimSpace(content), editedAt); err != nil {
		return nil, apperrors.Internal(err, "failed to edit message")
	}
	message.Content = strings.TrimSpace(content)
	message.IsEdited = true
	message.EditedAt = &editedAt
	message.UpdatedAt = editedAt
	return message, nil
}

func (s *messageService) Delete(ctx context.Context, actor, messageID bson.ObjectID) error {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return apperrors.Internal(err, "failed to load message")
	}
	if message == nil {
		return apperrors.NotFound("message not found")
	}

	if message.Channel != nil {
		channel, err := s.channels.GetByID(ctx, *message.Channel)
		if err != nil {
			return apperrors.Internal(err, "failed to load channel")
		}
		if channel == nil {
			// orphaned channel message: only the sender may clean it up
			if perr := authz.CanDeleteOwnMessage(actor, message.Sender); perr != nil {
				return perr
			}
		} else if perr := authz.CanDeleteChannelMessage(actor, channel.AuthState(), message.Sender); perr != nil {
			return perr
		}
	} else {
		if perr := authz.CanDeleteOwnMessage(actor, message.Sender); perr != nil {
			return perr
		}
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return apperrors.Internal(err, "failed to delete message")
	}
	return nil
}

func (s *messageService) MarkRead(ctx context.Context, actor bson.ObjectID, messageIDs []bson.ObjectID) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, apperrors.BadRequest("please provide a messageId or an array of messageIds")
	}
	n, err := s.messages.MarkRead(ctx, messageIDs, actor)
	if err != nil {
		return 0, apperrors.Internal(err, "failed to mark messages as read")
	}
	if n == 0 {
		return 0, apperrors.NotModified("no messages updated, they may already be read or not found")
	}
	return n, nil
}
