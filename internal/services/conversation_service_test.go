package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/apperrors"
	"backchannel/internal/models"
)

func TestConversationServiceCreate(t *testing.T) {
	conversations := newFakeConversationRepo()
	users := newFakeUserRepo()
	messages := newFakeMessageRepo()
	svc := NewConversationService(conversations, users, messages, false)

	actor := bson.NewObjectID()
	participant := &models.User{Email: "peer@example.com"}
	require.NoError(t, users.Create(context.Background(), participant))

	conv, err := svc.Create(context.Background(), actor, participant.ID)
	require.NoError(t, err)
	require.False(t, conv.ID.IsZero())
	require.False(t, conv.IsGroup)
	require.ElementsMatch(t, []bson.ObjectID{actor, participant.ID}, conv.Participants)

	// пара уже существует, в любом порядке участников
	_, err = svc.Create(context.Background(), actor, participant.ID)
	require.Error(t, err)
	require.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	actorUser := &models.User{ID: actor, Email: "actor@example.com"}
	require.NoError(t, users.Create(context.Background(), actorUser))
	_, err = svc.Create(context.Background(), participant.ID, actor)
	require.Error(t, err)
	require.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	// неизвестный собеседник
	_, err = svc.Create(context.Background(), actor, bson.NewObjectID())
	require.Error(t, err)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestConversationServiceList(t *testing.T) {
	conversations := newFakeConversationRepo()
	users := newFakeUserRepo()
	svc := NewConversationService(conversations, users, newFakeMessageRepo(), false)

	a := bson.NewObjectID()
	b := bson.NewObjectID()
	c := bson.NewObjectID()
	require.NoError(t, conversations.Create(context.Background(), &models.Conversation{Participants: []bson.ObjectID{a, b}}))
	require.NoError(t, conversations.Create(context.Background(), &models.Conversation{Participants: []bson.ObjectID{b, c}}))

	got, err := svc.List(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.List(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestConversationServiceDelete(t *testing.T) {
	conversations := newFakeConversationRepo()
	users := newFakeUserRepo()
	messages := newFakeMessageRepo()
	svc := NewConversationService(conversations, users, messages, true)

	a := bson.NewObjectID()
	b := bson.NewObjectID()
	outsider := bson.NewObjectID()

	conv := &models.Conversation{Participants: []bson.ObjectID{a, b}}
	require.NoError(t, conversations.Create(context.Background(), conv))
	require.NoError(t, messages.Create(context.Background(), &models.Message{Sender: a, Content: "hey", Conversation: &conv.ID}))

	err := svc.Delete(context.Background(), outsider, conv.ID)
	require.Error(t, err)
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	// удаление уносит диалог целиком вместе с сообщениями
	require.NoError(t, svc.Delete(context.Background(), b, conv.ID))
	stored, _ := conversations.GetByID(context.Background(), conv.ID)
	require.Nil(t, stored)
	remaining, _ := messages.ListByConversation(context.Background(), conv.ID)
	require.Empty(t, remaining)

	err = svc.Delete(context.Background(), a, conv.ID)
	require.Error(t, err)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
