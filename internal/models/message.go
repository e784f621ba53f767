package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Attachment struct {
	FileType string `bson:"fileType" json:"file_type"`
	URL      string `bson:"url" json:"url"`
}

// Message targets exactly one of Channel or Conversation. IsEdited/EditedAt
// are set only when content is mutated after creation, never on the first
// write.
type Message struct {
	ID           bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Sender       bson.ObjectID   `bson:"sender" json:"sender"`
	Content      string          `bson:"content" json:"content"`
	Channel      *bson.ObjectID  `bson:"channel,omitempty" json:"channel,omitempty"`
	Conversation *bson.ObjectID  `bson:"conversation,omitempty" json:"conversation,omitempty"`
	IsPinned     bool            `bson:"isPinned" json:"is_pinned"`
	IsEdited     bool            `bson:"isEdited" json:"is_edited"`
	EditedAt     *time.Time      `bson:"editedAt,omitempty" json:"edited_at,omitempty"`
	Attachments  []Attachment    `bson:"attachments,omitempty" json:"attachments,omitempty"`
	ReadBy       []bson.ObjectID `bson:"readBy" json:"read_by"`
	CreatedAt    time.Time       `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time       `bson:"updatedAt" json:"updated_at"`
}

func (m *Message) ReadByUser(user bson.ObjectID) bool {
	for _, r := range m.ReadBy {
		if r == user {
			return true
		}
	}
	return false
}
