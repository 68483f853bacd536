// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles within a user group. A manager record IS the member
// edge: exactly one document exists per (group_id, user_id), and its role
// is a scalar. Promoting a member flips the role on the existing record,
// which makes "every manager is a member" structural rather than a
// cross-field invariant to re-check.
const (
	MembershipMember  = "member"
	MembershipManager = "manager"
)

// GroupMembership is the authoritative join between users and user groups.
type GroupMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"` // "manager" | "member"
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
