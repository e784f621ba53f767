package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/apperrors"
)

func stateWith(creator bson.ObjectID, private bool, roles map[bson.ObjectID]ChannelRole) ChannelState {
	return ChannelState{CreatedBy: creator, IsPrivate: private, Roles: roles}
}

func TestCanAddMember(t *testing.T) {
	creator := bson.NewObjectID()
	admin := bson.NewObjectID()
	member := bson.NewObjectID()
	outsider := bson.NewObjectID()

	roles := map[bson.ObjectID]ChannelRole{
		creator: RoleOwner,
		admin:   RoleAdmin,
		member:  RoleMember,
	}

	tests := []struct {
		name    string
		actor   bson.ObjectID
		private bool
		target  bson.ObjectID
		want    apperrors.Kind
		ok      bool
	}{
		{name: "creator adds to public channel", actor: creator, target: outsider, ok: true},
		{name: "member adds to public channel", actor: member, target: outsider, ok: true},
		{name: "creator adds to private channel", actor: creator, private: true, target: outsider, ok: true},
		{name: "admin cannot add to private channel", actor: admin, private: true, target: outsider, want: apperrors.KindForbidden},
		{name: "duplicate member", actor: creator, target: member, want: apperrors.KindConflict},
		{name: "duplicate wins over privacy check", actor: admin, private: true, target: member, want: apperrors.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanAddMember(tt.actor, stateWith(creator, tt.private, roles), tt.target)
			if tt.ok {
				require.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			require.Equal(t, tt.want, err.Kind)
		})
	}
}

func TestCanAssignRole(t *testing.T) {
	creator := bson.NewObjectID()
	admin := bson.NewObjectID()
	member := bson.NewObjectID()
	outsider := bson.NewObjectID()

	st := stateWith(creator, false, map[bson.ObjectID]ChannelRole{
		creator: RoleOwner,
		admin:   RoleAdmin,
		member:  RoleMember,
	})

	require.Nil(t, CanAssignRole(creator, st, member, RoleAdmin))

	err := CanAssignRole(admin, st, member, RoleAdmin)
	require.NotNil(t, err)
	require.Equal(t, apperrors.KindForbidden, err.Kind)

	err = CanAssignRole(creator, st, member, ChannelRole("superuser"))
	require.NotNil(t, err)
	require.Equal(t, apperrors.KindBadRequest, err.Kind)

	err = CanAssignRole(creator, st, outsider, RoleMember)
	require.NotNil(t, err)
	require.Equal(t, apperrors.KindNotFound, err.Kind)
}

func TestCanRemoveMember(t *testing.T) {
	creator := bson.NewObjectID()
	admin := bson.NewObjectID()
	member := bson.NewObjectID()
	other := bson.NewObjectID()
	outsider := bson.NewObjectID()

	st := stateWith(creator, false, map[bson.ObjectID]ChannelRole{
		creator: RoleOwner,
		admin:   RoleAdmin,
		member:  RoleMember,
		other:   RoleMember,
	})

	require.Nil(t, CanRemoveMember(creator, st, member))
	require.Nil(t, CanRemoveMember(admin, st, member))

	err := CanRemoveMember(member, st, other)
	require.NotNil(t, err)
	require.Equal(t, apperrors.KindForbidden, err.Kind)

	err = CanRemoveMember(outsider, st, member)
	require.NotNil(t, err)
	require.Equal(t, apperrors.KindForbidden, err.Kind)

	err = CanRemoveMember(admin, st, outsider)
	require.NotNil(t, err)
	require.Equal(t, apperrors.KindNotFound, err.Kind)
}

func TestCanExit(t *testing.T) {
	creator := bson.NewObjectID()
	member := bson.NewObjectID()
	outsider := bson.NewObjectID()

	st := stateWith(creator, false, map[bson.ObjectID]ChannelRole{
		creator: RoleOwner,
		member:  RoleMember,
	})

	require.Nil(t, CanExit(member, st))

	err := CanExit(outsider, st)
	require.NotNil(t, err)
	require.Equal(t, apperrors.KindNotFound, err.Kind)
}

func TestCanUpdateChannel(t *testing.T) {
	creator := bson.NewObjectID()
	member := bson.NewObjectID()

	st := stateWith(creator, false, map[bson.ObjectID]ChannelRole{
		creator: RoleOwner,
		member:  RoleMember,
	})

	require.Nil(t, CanUpdateChannel(creator, st, []string{"name", "isPrivate"}))

	err := CanUpdateChannel(member, st, []string{"name"})
	require.NotNil(t, err)
	require.Equal(t, apperrors.KindForbidden, err.Kind)

	// один недопустимый ключ валит весь запрос
	err = CanUpdateChannel(creator, st, []string{"name", "createdBy"})
	require.NotNil(t, err)
	require.Equal(t, apperrors.KindBadRequest, err.Kind)
}

func TestCanDeleteChannelMessage(t *testing.T) {
	creator := bson.NewObjectID()
	admin := bson.NewObjectID()
	sender := bson.NewObjectID()
	member := bson.NewObjectID()

	st := stateWith(creator, false, map[bson.ObjectID]ChannelRole{
		creator: RoleOwner,
		admin:   RoleAdmin,
		sender:  RoleMember,
		member:  RoleMember,
	})

	require.Nil(t, CanDeleteChannelMessage(sender, st, sender))
	require.Nil(t, CanDeleteChannelMessage(creator, st, sender))
	require.Nil(t, CanDeleteChannelMessage(admin, st, sender))

	err := CanDeleteChannelMessage(member, st, sender)
	require.NotNil(t, err)
	require.Equal(t, apperrors.KindForbidden, err.Kind)
}

func TestCanAccessConversation(t *testing.T) {
	a := bson.NewObjectID()
	b := bson.NewObjectID()
	outsider := bson.NewObjectID()
	participants := []bson.ObjectID{a, b}

	require.Nil(t, CanAccessConversation(a, participants))
	require.Nil(t, CanAccessConversation(b, participants))

	err := CanAccessConversation(outsider, participants)
	require.NotNil(t, err)
	require.Equal(t, apperrors.KindForbidden, err.Kind)
}

func TestParseChannelRole(t *testing.T) {
	for _, s := range []string{"owner", "admin", "member"} {
		role, ok := ParseChannelRole(s)
		require.True(t, ok)
		require.Equal(t, ChannelRole(s), role)
	}
	for _, s := range []string{"", "Owner", "moderator", "root"} {
		_, ok := ParseChannelRole(s)
		require.False(t, ok, "role %q must be rejected", s)
	}
}
