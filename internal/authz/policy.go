package authz

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/apperrors"
)

// ChannelState is the slice of a channel the policy needs to decide on an
// action. It is built from the aggregate by the caller; the policy itself
// never touches storage.
type ChannelState struct {
	CreatedBy bson.ObjectID
	IsPrivate bool
	Roles     map[bson.ObjectID]ChannelRole
}

// CanCreateChannel: any authenticated actor may create a channel.
func CanCreateChannel(actor bson.ObjectID) *apperrors.Error {
	return nil
}

func CanAddMember(actor bson.ObjectID, ch ChannelState, newUser bson.ObjectID) *apperrors.Error {
	if _, ok := ch.Roles[newUser]; ok {
		return apperrors.Conflict("user is already a member of the channel")
	}
	if ch.IsPrivate && actor != ch.CreatedBy {
		return apperrors.Forbidden("only the creator can add users to this private channel")
	}
	return nil
}

// CanAssignRole is creator-only: channel admins cannot hand out roles.
func CanAssignRole(actor bson.ObjectID, ch ChannelState, target bson.ObjectID, role ChannelRole) *apperrors.Error {
	if actor != ch.CreatedBy {
		return apperrors.Forbidden("only the channel owner can assign roles")
	}
	switch role {
	case RoleOwner, RoleAdmin, RoleMember:
	default:
		return apperrors.BadRequest("invalid role %q", string(role))
	}
	if _, ok := ch.Roles[target]; !ok {
		return apperrors.NotFound("user is not a member of the channel")
	}
	return nil
}

func CanRemoveMember(actor bson.ObjectID, ch ChannelState, target bson.ObjectID) *apperrors.Error {
	switch ch.Roles[actor] {
	case RoleOwner, RoleAdmin:
	default:
		return apperrors.Forbidden("you do not have permission to remove users from this channel")
	}
	if _, ok := ch.Roles[target]; !ok {
		return apperrors.NotFound("user not found in the channel")
	}
	return nil
}

func CanExit(actor bson.ObjectID, ch ChannelState) *apperrors.Error {
	if _, ok := ch.Roles[actor]; !ok {
		return apperrors.NotFound("you are not a member of this channel")
	}
	return nil
}

func CanDeleteChannel(actor bson.ObjectID, ch ChannelState) *apperrors.Error {
	if actor != ch.CreatedBy {
		return apperrors.Forbidden("only the channel creator can delete this channel")
	}
	return nil
}

// channelUpdateWhitelist limits PATCH /channels/:id to renaming and privacy
// toggling. One field outside the whitelist denies the whole request.
var channelUpdateWhitelist = map[string]struct{}{
	"name":      {},
	"isPrivate": {},
}

func CanUpdateChannel(actor bson.ObjectID, ch ChannelState, fields []string) *apperrors.Error {
	if actor != ch.CreatedBy {
		return apperrors.Forbidden("only the channel creator can update this channel")
	}
	for _, f := range fields {
		if _, ok := channelUpdateWhitelist[f]; !ok {
			return apperrors.BadRequest("invalid update field %q", f)
		}
	}
	return nil
}

func CanEditMessage(actor, sender bson.ObjectID) *apperrors.Error {
	if actor != sender {
		return apperrors.Forbidden("you can only edit your own messages")
	}
	return nil
}

func CanDeleteOwnMessage(actor, sender bson.ObjectID) *apperrors.Error {
	if actor != sender {
		return apperrors.Forbidden("you can only delete your own messages")
	}
	return nil
}

// CanDeleteChannelMessage: the sender may always delete; channel owners and
// admins may moderate other people's messages.
func CanDeleteChannelMessage(actor bson.ObjectID, ch ChannelState, sender bson.ObjectID) *apperrors.Error {
	if actor == sender {
		return nil
	}
	switch ch.Roles[actor] {
	case RoleOwner, RoleAdmin:
		return nil
	default:
		return apperrors.Forbidden("you do not have permission to delete this message")
	}
}

func CanSendChannelMessage(actor bson.ObjectID, ch ChannelState) *apperrors.Error {
	if _, ok := ch.Roles[actor]; !ok {
		return apperrors.Forbidden("you must be a member of the channel to send a message")
	}
	return nil
}

func CanReadChannel(actor bson.ObjectID, ch ChannelState) *apperrors.Error {
	if _, ok := ch.Roles[actor]; !ok {
		return apperrors.Forbidden("you must be a member of this channel to view messages")
	}
	return nil
}

func CanAccessConversation(actor bson.ObjectID, participants []bson.ObjectID) *apperrors.Error {
	for _, p := range participants {
		if p == actor {
			return nil
		}
	}
	return apperrors.Forbidden("you are not a participant in this conversation")
}
