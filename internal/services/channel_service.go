package services

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/apperrors"
	"backchannel/internal/authz"
	"backchannel/internal/models"
	"backchannel/internal/repositories"
)

// ChannelService is the membership lifecycle manager: every mutation loads
// the channel, runs the authorization policy with the explicit actor, then
// persists through a single document update.
type ChannelService interface {
	Create(ctx context.Context, actor bson.ObjectID, name, description string, isPrivate bool) (*models.Channel, error)
	List(ctx context.Context, actor bson.ObjectID) ([]*models.Channel, error)
	AddMember(ctx context.Context, actor, channelID, userID bson.ObjectID) (*models.Channel, error)
	RemoveMember(ctx context.Context, actor, channelID, userID bson.ObjectID) error
	Exit(ctx context.Context, actor, channelID bson.ObjectID) error
	AssignRole(ctx context.Context, actor, channelID, userID bson.ObjectID, role string) (*models.Channel, error)
	UpdateDetails(ctx context.Context, actor, channelID bson.ObjectID, fields map[string]any) (*models.Channel, error)
	Delete(ctx context.Context, actor, channelID bson.ObjectID) error
}

type channelService struct {
	channels repositories.ChannelRepository
	users    repositories.UserRepository
	messages repositories.MessageRepository

	// когда включено — удаление канала уносит и его сообщения
	cascadeDeleteMessages bool
}

func NewChannelService(
	channels repositories.ChannelRepository,
	users repositories.UserRepository,
	messages repositories.MessageRepository,
	cascadeDeleteMessages bool,
) ChannelService {
	return &channelService{
		channels:              channels,
		users:                 users,
		messages:              messages,
		cascadeDeleteMessages: cascadeDeleteMessages,
	}
}

func (s *channelService) load(ctx context.Context, channelID bson.ObjectID) (*models.Channel, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load channel")
	}
	if channel == nil {
		return nil, apperrors.NotFound("channel not found")
	}
	return channel, nil
}

func (s *channelService) Create(ctx context.Context, actor bson.ObjectID, name, description string, isPrivate bool) (*models.Channel, error) {
	if err := authz.CanCreateChannel(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	existing, err := s.channels.GetByName(ctx, name)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to check channel name")
	}
	if existing != nil {
		return nil, apperrors.Conflict("channel name already exists")
	}

	channel := models.NewChannel(actor, name, description, isPrivate)
	if verr := channel.Validate(); verr != nil {
		return nil, verr
	}
	if err := s.channels.Create(ctx, channel); err != nil {
		return nil, apperrors.Internal(err, "failed to create channel")
	}
	return channel, nil
}

func (s *channelService) List(ctx context.Context, actor bson.ObjectID) ([]*models.Channel, error) {
	channels, err := s.channels.ListVisible(ctx, actor)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list channels")
	}
	return channels, nil
}

func (s *channelService) AddMember(ctx context.Context, actor, channelID, userID bson.ObjectID) (*models.Channel, error) {
	channel, err := s.load(ctx, channelID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to look up user")
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}
	if perr := authz.CanAddMember(actor, channel.AuthState(), userID); perr != nil {
		return nil, perr
	}

	// re-added users always start with a fresh entry, lastSeen nil
	member := models.ChannelMember{User: userID, Role: authz.RoleMember}
	if err := s.channels.AddMember(ctx, channelID, member); err != nil {
		return nil, apperrors.Internal(err, "failed to add member")
	}
	channel.AddMember(userID, authz.RoleMember)
	return channel, nil
}

func (s *channelService) RemoveMember(ctx context.Context, actor, channelID, userID bson.ObjectID) error {
	channel, err := s.load(ctx, channelID)
	if err != nil {
		return err
	}
	if perr := authz.CanRemoveMember(actor, channel.AuthState(), userID); perr != nil {
		return perr
	}
	if channel.Roster().Len() <= 1 {
		return apperrors.Conflict("a channel must have at least one member")
	}
	if err := s.channels.RemoveMember(ctx, channelID, userID); err != nil {
		return apperrors.Internal(err, "failed to remove member")
	}
	return nil
}

func (s *channelService) Exit(ctx context.Context, actor, channelID bson.ObjectID) error {
	channel, err := s.load(ctx, channelID)
	if err != nil {
		return err
	}
	if perr := authz.CanExit(actor, channel.AuthState()); perr != nil {
		return perr
	}
	if channel.Roster().Len() <= 1 {
		return apperrors.Conflict("a channel must have at least one member")
	}
	if err := s.channels.RemoveMember(ctx, channelID, actor); err != nil {
		return apperrors.Internal(err, "failed to exit channel")
	}
	return nil
}

func (s *channelService) AssignRole(ctx context.Context, actor, channelID, userID bson.ObjectID, role string) (*models.Channel, error) {
	parsed, ok := authz.ParseChannelRole(role)
	if !ok {
		return nil, apperrors.BadRequest("invalid role %q", role)
	}
	channel, err := s.load(ctx, channelID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to look up user")
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}
	if perr := authz.CanAssignRole(actor, channel.AuthState(), userID, parsed); perr != nil {
		return nil, perr
	}
	if err := s.channels.SetMemberRole(ctx, channelID, userID, parsed); err != nil {
		return nil, apperrors.Internal(err, "failed to assign role")
	}
	channel.SetMemberRole(userID, parsed)
	return channel, nil
}

func (s *channelService) UpdateDetails(ctx context.Context, actor, channelID bson.ObjectID, fields map[string]any) (*models.Channel, error) {
	channel, err := s.load(ctx, channelID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	if perr := authz.CanUpdateChannel(actor, channel.AuthState(), names); perr != nil {
		return nil, perr
	}

	update := bson.M{}
	if v, ok := fields["name"]; ok {
		name, ok := v.(string)
		if !ok {
			return nil, apperrors.BadRequest("channel name must be a string")
		}
		name = strings.TrimSpace(name)
		if utf8.RuneCountInString(name) < 3 {
			return nil, apperrors.BadRequest("channel name should be at least 3 characters long")
		}
		other, err := s.channels.GetByName(ctx, name)
		if err != nil {
			return nil, apperrors.Internal(err, "failed to check channel name")
		}
		if other != nil && other.ID != channelID {
			return nil, apperrors.Conflict("channel name already exists")
		}
		update["name"] = name
		channel.Name = name
	}
	if v, ok := fields["isPrivate"]; ok {
		private, ok := v.(bool)
		if !ok {
			return nil, apperrors.BadRequest("isPrivate must be a boolean")
		}
		update["isPrivate"] = private
		channel.IsPrivate = private
	}
	if len(update) == 0 {
		return channel, nil
	}

	if err := s.channels.UpdateDetails(ctx, channelID, update); err != nil {
		return nil, apperrors.Internal(err, "failed to update channel")
	}
	return channel, nil
}

func (s *channelService) Delete(ctx context.Context, actor, channelID bson.ObjectID) error {
	channel, err := s.load(ctx, channelID)
	if err != nil {
		return err
	}
	if perr := authz.CanDeleteChannel(actor, channel.AuthState()); perr != nil {
		return perr
	}
	if err := s.channels.Delete(ctx, channelID); err != nil {
		return apperrors.Internal(err, "failed to delete channel")
	}
	if s.cascadeDeleteMessages {
		n, err := s.messages.DeleteByChannel(ctx, channelID)
		if err != nil {
			// канал уже удалён — сообщаем и живём с осиротевшими сообщениями
			log.Printf("[channels][delete] warning: failed to cascade messages for channel=%s: %v", channelID.Hex(), err)
			return nil
		}
		log.Printf("[channels][delete] channel=%s removed, cascaded %d messages", channelID.Hex(), n)
	}
	return nil
}
