// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles, lowest to highest capability tier.
const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleRoot    = "root"
)

// Account and group statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User represents a chat account: regular users, group managers, and root.
//
// NOTE:
//   - Group membership is not embedded on User. Use the group_memberships
//     collection to discover a user's groups and which ones they manage.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	Email       string             `bson:"email" json:"email"`
	EmailCI     string             `bson:"email_ci" json:"-"` // lowercase, trimmed
	Role        string             `bson:"role" json:"role"`  // user | manager | root
	Status      string             `bson:"status" json:"status"`

	// Local-mode credential. Hashing policy lives with the caller that
	// sets this field; this package only carries the hash.
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	// ExternalID is the upstream identity key in sso mode.
	ExternalID string `bson:"external_id,omitempty" json:"external_id,omitempty"`
	AuthMethod string `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // local | sso

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	LastLogin *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
}

// Disabled reports whether the account has been disabled.
func (u *User) Disabled() bool {
	return u != nil && u.Status == StatusDisabled
}

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleManager || role == RoleRoot
}
