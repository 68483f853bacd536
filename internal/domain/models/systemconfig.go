// internal/domain/models/systemconfig.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Authentication modes. The mode selects how identity is established and
// gates entire capability classes (sharing, groups, settings).
const (
	AuthModeNone  = "none"  // single implicit identity, no login
	AuthModeLocal = "local" // credential login with server-side sessions
	AuthModeSSO   = "sso"   // identity asserted by trusted upstream headers
)

// ValidAuthMode reports whether mode is one of the three known modes.
func ValidAuthMode(mode string) bool {
	return mode == AuthModeNone || mode == AuthModeLocal || mode == AuthModeSSO
}

// SSOHeaderMapping names the upstream headers carrying identity attributes
// in sso mode.
type SSOHeaderMapping struct {
	ExternalID  string `bson:"external_id" json:"external_id"`   // e.g. "X-Auth-Request-User"
	Email       string `bson:"email" json:"email"`               // e.g. "X-Auth-Request-Email"
	DisplayName string `bson:"display_name" json:"display_name"` // e.g. "X-Auth-Request-Preferred-Username"
}

// SystemConfig is the singleton runtime configuration document. There is
// exactly one; the settings store upserts it under a fixed key.
type SystemConfig struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"-"`

	AuthMode        string `bson:"auth_mode" json:"auth_mode"`
	AllowMultiLogin bool   `bson:"allow_multi_login" json:"allow_multi_login"`
	MaintenanceMode bool   `bson:"maintenance_mode" json:"maintenance_mode"`

	// SSOHeaders is consulted only when AuthMode is "sso".
	SSOHeaders SSOHeaderMapping `bson:"sso_headers,omitempty" json:"sso_headers,omitempty"`

	UpdatedAt   *time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByID *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
}
