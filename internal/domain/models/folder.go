// internal/domain/models/folder.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Folder organizes a user's own conversations (the UI calls this a
// "conversation group"). It is purely organizational: deleting a folder
// ungroups its conversations, it never deletes them. Folders carry no
// sharing semantics; that is what UserGroup is for.
type Folder struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	Name    string             `bson:"name" json:"name"`
	OwnerID primitive.ObjectID `bson:"owner_id" json:"owner_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
