// internal/domain/models/usergroup.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserGroup is a named collection of users used for delegation scoping and
// conversation sharing. It is a distinct concept from ConversationGroup,
// which is a personal folder.
//
// NOTE:
//   - Member/manager lists are not embedded on UserGroup. All membership
//     is stored in the group_memberships collection.
type UserGroup struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"`
	Status string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
