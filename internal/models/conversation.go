package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Conversation is a direct-message thread. One-to-one conversations carry
// exactly two participants; IsGroup is kept for document compatibility.
type Conversation struct {
	ID           bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Participants []bson.ObjectID `bson:"participants" json:"participants"`
	IsGroup      bool            `bson:"isGroup" json:"is_group"`
	CreatedAt    time.Time       `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time       `bson:"updatedAt" json:"updated_at"`
}

func (c *Conversation) HasParticipant(user bson.ObjectID) bool {
	for _, p := range c.Participants {
		if p == user {
			return true
		}
	}
	return false
}
