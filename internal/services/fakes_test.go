package services

// Хранилища в памяти для сервисных тестов: поведение повторяет
// mongo-репозитории (nil, nil при отсутствии документа, счётчики
// modified/deleted).

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/authz"
	"backchannel/internal/models"
)

type fakeUserRepo struct {
	users map[bson.ObjectID]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[bson.ObjectID]*models.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = bson.NewObjectID()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, limit, offset int64) ([]*models.User, error) {
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateRefresh(ctx context.Context, userID bson.ObjectID, token string, expiresAt time.Time) error {
	if u := r.users[userID]; u != nil {
		u.RefreshToken = &token
		u.RefreshExpiresAt = &expiresAt
	}
	return nil
}

func (r *fakeUserRepo) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ClearRefresh(ctx context.Context, userID bson.ObjectID) error {
	if u := r.users[userID]; u != nil {
		u.RefreshToken = nil
		u.RefreshExpiresAt = nil
	}
	return nil
}

func (r *fakeUserRepo) SetResetToken(ctx context.Context, userID bson.ObjectID, token string, expiresAt time.Time) error {
	if u := r.users[userID]; u != nil {
		u.ResetToken = &token
		u.ResetExpiresAt = &expiresAt
	}
	return nil
}

func (r *fakeUserRepo) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userID bson.ObjectID, passwordHash string) error {
	if u := r.users[userID]; u != nil {
		now := time.Now()
		u.PasswordHash = passwordHash
		u.PasswordChangedAt = &now
		u.ResetToken = nil
		u.ResetExpiresAt = nil
	}
	return nil
}

type fakeChannelRepo struct {
	channels map[bson.ObjectID]*models.Channel
}

func newFakeChannelRepo(channels ...*models.Channel) *fakeChannelRepo {
	r := &fakeChannelRepo{channels: make(map[bson.ObjectID]*models.Channel)}
	for _, c := range channels {
		if c.ID.IsZero() {
			c.ID = bson.NewObjectID()
		}
		r.channels[c.ID] = c
	}
	return r
}

func (r *fakeChannelRepo) Create(ctx context.Context, channel *models.Channel) error {
	if channel.ID.IsZero() {
		channel.ID = bson.NewObjectID()
	}
	r.channels[channel.ID] = channel
	return nil
}

func (r *fakeChannelRepo) GetByID(ctx context.Context, id bson.ObjectID) (*models.Channel, error) {
	return r.channels[id], nil
}

func (r *fakeChannelRepo) GetByName(ctx context.Context, name string) (*models.Channel, error) {
	for _, c := range r.channels {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeChannelRepo) ListVisible(ctx context.Context, userID bson.ObjectID) ([]*models.Channel, error) {
	var out []*models.Channel
	for _, c := range r.channels {
		if !c.IsPrivate || c.Roster().Has(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeChannelRepo) UpdateDetails(ctx context.Context, id bson.ObjectID, fields bson.M) error {
	c := r.channels[id]
	if c == nil {
		return nil
	}
	if v, ok := fields["name"].(string); ok {
		c.Name = v
	}
	if v, ok := fields["isPrivate"].(bool); ok {
		c.IsPrivate = v
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (r *fakeChannelRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	delete(r.channels, id)
	return nil
}

func (r *fakeChannelRepo) AddMember(ctx context.Context, channelID bson.ObjectID, member models.ChannelMember) error {
	if c := r.channels[channelID]; c != nil {
		c.Members = append(c.Members, member)
	}
	return nil
}

func (r *fakeChannelRepo) RemoveMember(ctx context.Context, channelID, userID bson.ObjectID) error {
	if c := r.channels[channelID]; c != nil {
		c.RemoveMember(userID)
	}
	return nil
}

func (r *fakeChannelRepo) SetMemberRole(ctx context.Context, channelID, userID bson.ObjectID, role authz.ChannelRole) error {
	if c := r.channels[channelID]; c != nil {
		c.SetMemberRole(userID, role)
	}
	return nil
}

func (r *fakeChannelRepo) TouchLastSeen(ctx context.Context, channelID, userID bson.ObjectID, t time.Time) error {
	if c := r.channels[channelID]; c != nil {
		c.TouchLastSeen(userID, t)
	}
	return nil
}

type fakeConversationRepo struct {
	conversations map[bson.ObjectID]*models.Conversation
}

func newFakeConversationRepo(conversations ...*models.Conversation) *fakeConversationRepo {
	r := &fakeConversationRepo{conversations: make(map[bson.ObjectID]*models.Conversation)}
	for _, c := range conversations {
		if c.ID.IsZero() {
			c.ID = bson.NewObjectID()
		}
		r.conversations[c.ID] = c
	}
	return r
}

func (r *fakeConversationRepo) Create(ctx context.Context, conversation *models.Conversation) error {
	if conversation.ID.IsZero() {
		conversation.ID = bson.NewObjectID()
	}
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	r.conversations[conversation.ID] = conversation
	return nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id bson.ObjectID) (*models.Conversation, error) {
	return r.conversations[id], nil
}

func (r *fakeConversationRepo) GetByParticipants(ctx context.Context, a, b bson.ObjectID) (*models.Conversation, error) {
	for _, c := range r.conversations {
		if !c.IsGroup && c.HasParticipant(a) && c.HasParticipant(b) {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeConversationRepo) ListForUser(ctx context.Context, userID bson.ObjectID) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, c := range r.conversations {
		if !c.IsGroup && c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	delete(r.conversations, id)
	return nil
}

type fakeMessageRepo struct {
	messages map[bson.ObjectID]*models.Message
	order    []bson.ObjectID
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[bson.ObjectID]*models.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *models.Message) error {
	if message.ID.IsZero() {
		message.ID = bson.NewObjectID()
	}
	now := time.Now()
	message.CreatedAt = now
	message.UpdatedAt = now
	if message.ReadBy == nil {
		message.ReadBy = []bson.ObjectID{}
	}
	r.messages[message.ID] = message
	r.order = append(r.order, message.ID)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id bson.ObjectID) (*models.Message, error) {
	return r.messages[id], nil
}

func (r *fakeMessageRepo) ListByChannel(ctx context.Context, channelID bson.ObjectID) ([]*models.Message, error) {
	var out []*models.Message
	for _, id := range r.order {
		m, ok := r.messages[id]
		if ok && m.Channel != nil && *m.Channel == channelID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID bson.ObjectID) ([]*models.Message, error) {
	var out []*models.Message
	for _, id := range r.order {
		m, ok := r.messages[id]
		if ok && m.Conversation != nil && *m.Conversation == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) UpdateContent(ctx context.Context, id bson.ObjectID, content string, editedAt time.Time) error {
	if m := r.messages[id]; m != nil {
		m.Content = content
		m.IsEdited = true
		m.EditedAt = &editedAt
		m.UpdatedAt = editedAt
	}
	return nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	delete(r.messages, id)
	return nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, ids []bson.ObjectID, userID bson.ObjectID) (int64, error) {
	var n int64
	for _, id := range ids {
		m := r.messages[id]
		if m == nil || m.ReadByUser(userID) {
			continue
		}
		m.ReadBy = append(m.ReadBy, userID)
		n++
	}
	return n, nil
}

func (r *fakeMessageRepo) MarkChannelRead(ctx context.Context, channelID, userID bson.ObjectID) (int64, error) {
	var n int64
	for _, m := range r.messages {
		if m.Channel == nil || *m.Channel != channelID || m.ReadByUser(userID) {
			continue
		}
		m.ReadBy = append(m.ReadBy, userID)
		n++
	}
	return n, nil
}

func (r *fakeMessageRepo) DeleteByChannel(ctx context.Context, channelID bson.ObjectID) (int64, error) {
	var n int64
	for id, m := range r.messages {
		if m.Channel != nil && *m.Channel == channelID {
			delete(r.messages, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) DeleteByConversation(ctx context.Context, conversationID bson.ObjectID) (int64, error) {
	var n int64
	for id, m := range r.messages {
		if m.Conversation != nil && *m.Conversation == conversationID {
			delete(r.messages, id)
			n++
		}
	}
	return n, nil
}
