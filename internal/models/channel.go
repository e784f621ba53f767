package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/apperrors"
	"backchannel/internal/authz"
)

const (
	channelNameMinLen = 3
	channelDescMaxLen = 200
)

type ChannelMember struct {
	User     bson.ObjectID     `bson:"user" json:"user"`
	Role     authz.ChannelRole `bson:"role" json:"role"`
	LastSeen *time.Time        `bson:"lastSeen" json:"last_seen"`
}

type Channel struct {
	ID           bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string          `bson:"name" json:"name"`
	Description  string          `bson:"description" json:"description"`
	IsPrivate    bool            `bson:"isPrivate" json:"is_private"`
	Members      []ChannelMember `bson:"members" json:"members"`
	CreatedBy    bson.ObjectID   `bson:"createdBy" json:"created_by"`
	InvitedUsers []bson.ObjectID `bson:"invitedUsers,omitempty" json:"invited_users,omitempty"`
	Moderators   []bson.ObjectID `bson:"moderators,omitempty" json:"moderators,omitempty"`
	CreatedAt    time.Time       `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time       `bson:"updatedAt" json:"updated_at"`
}

// NewChannel builds a channel with the creator as its sole owner member,
// mirroring how a channel document first lands in the store.
func NewChannel(creator bson.ObjectID, name, description string, isPrivate bool) *Channel {
	now := time.Now()
	return &Channel{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		IsPrivate:   isPrivate,
		CreatedBy:   creator,
		Members:     []ChannelMember{{User: creator, Role: authz.RoleOwner}},
		Moderators:  []bson.ObjectID{creator},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate runs the pre-persist checks: name length, description length and
// the at-least-one-member invariant.
func (c *Channel) Validate() *apperrors.Error {
	// считаем руны, не байты: многобайтовые имена не должны проходить короче
	if utf8.RuneCountInString(c.Name) < channelNameMinLen {
		return apperrors.BadRequest("channel name should be at least %d characters long", channelNameMinLen)
	}
	if len(c.Description) > channelDescMaxLen {
		return apperrors.BadRequest("description cannot exceed %d characters", channelDescMaxLen)
	}
	if len(c.Members) == 0 {
		return apperrors.Conflict("a channel must have at least one member")
	}
	return nil
}

// Roster indexes the member list by user id. Lookups are O(1); Order keeps
// the document's insertion order for anything listing members.
type Roster struct {
	order []bson.ObjectID
	byID  map[bson.ObjectID]*ChannelMember
}

func (c *Channel) Roster() *Roster {
	r := &Roster{
		order: make([]bson.ObjectID, 0, len(c.Members)),
		byID:  make(map[bson.ObjectID]*ChannelMember, len(c.Members)),
	}
	for i := range c.Members {
		m := &c.Members[i]
		r.order = append(r.order, m.User)
		r.byID[m.User] = m
	}
	return r
}

func (r *Roster) Get(user bson.ObjectID) (*ChannelMember, bool) {
	m, ok := r.byID[user]
	return m, ok
}

func (r *Roster) Has(user bson.ObjectID) bool {
	_, ok := r.byID[user]
	return ok
}

func (r *Roster) Len() int { return len(r.order) }

func (r *Roster) Order() []bson.ObjectID { return r.order }

func (r *Roster) Roles() map[bson.ObjectID]authz.ChannelRole {
	roles := make(map[bson.ObjectID]authz.ChannelRole, len(r.byID))
	for id, m := range r.byID {
		roles[id] = m.Role
	}
	return roles
}

// AuthState snapshots the channel for the authorization policy.
func (c *Channel) AuthState() authz.ChannelState {
	return authz.ChannelState{
		CreatedBy: c.CreatedBy,
		IsPrivate: c.IsPrivate,
		Roles:     c.Roster().Roles(),
	}
}

// AddMember appends a fresh membership entry. A re-added user starts over
// with a nil lastSeen.
func (c *Channel) AddMember(user bson.ObjectID, role authz.ChannelRole) {
	c.Members = append(c.Members, ChannelMember{User: user, Role: role})
}

// RemoveMember drops the matching entry, preserving the order of the rest.
func (c *Channel) RemoveMember(user bson.ObjectID) bool {
	for i := range c.Members {
		if c.Members[i].User == user {
			c.Members = append(c.Members[:i], c.Members[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Channel) SetMemberRole(user bson.ObjectID, role authz.ChannelRole) bool {
	for i := range c.Members {
		if c.Members[i].User == user {
			c.Members[i].Role = role
			return true
		}
	}
	return false
}

func (c *Channel) TouchLastSeen(user bson.ObjectID, t time.Time) bool {
	for i := range c.Members {
		if c.Members[i].User == user {
			c.Members[i].LastSeen = &t
			return true
		}
	}
	return false
}
