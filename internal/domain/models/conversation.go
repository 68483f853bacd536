// internal/domain/models/conversation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a chat thread owned by exactly one user. It may be filed
// into one of the owner's folders (FolderID) and shared read-only with any
// number of user groups (SharedWithGroupIDs).
type Conversation struct {
	ID      primitive.ObjectID  `bson:"_id" json:"id"`
	Title   string              `bson:"title" json:"title"`
	OwnerID primitive.ObjectID  `bson:"owner_id" json:"owner_id"`
	FolderID *primitive.ObjectID `bson:"folder_id,omitempty" json:"folder_id,omitempty"`

	// SharedWithGroupIDs is a set: share/unshare maintain it without
	// duplicates. Members of these groups get read-only visibility.
	SharedWithGroupIDs []primitive.ObjectID `bson:"shared_with_group_ids,omitempty" json:"shared_with_group_ids,omitempty"`

	MessageCount int       `bson:"message_count" json:"message_count"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// IsShared reports whether the conversation is shared with at least one group.
func (c *Conversation) IsShared() bool {
	return len(c.SharedWithGroupIDs) > 0
}

// Message is a single entry in a conversation. Streaming transport of
// assistant output is handled upstream; the store only appends and lists.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID primitive.ObjectID `bson:"conversation_id" json:"conversation_id"`
	Sender         string             `bson:"sender" json:"sender"` // "user" | "assistant"
	Content        string             `bson:"content" json:"content"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
