// internal/app/system/authz/capabilities.go
package authz

// Capability is a single action an identity may be permitted to perform.
// Capabilities are derived fresh per request context; nothing caches them
// across requests.
type Capability string

// Session capabilities.
const (
	CapLogin  Capability = "login"
	CapLogout Capability = "logout"
)

// Base capabilities, granted to every active role.
const (
	CapChat                  Capability = "chat"
	CapCreateConversation    Capability = "create_conversation"
	CapDeleteOwnConversation Capability = "delete_own_conversation"
	CapUploadFiles           Capability = "upload_files"
	CapDeleteOwnFiles        Capability = "delete_own_files"
)

// Identity-gated capabilities: absent entirely in mode "none", which has no
// identity concept to share with or persist settings for.
const (
	CapShareConversation Capability = "share_conversation"
	CapEditOwnSettings   Capability = "edit_own_settings"
	CapViewGroups        Capability = "view_groups"
)

// Elevated capabilities (manager and root).
const (
	CapViewUsers         Capability = "view_users"
	CapToggleUserStatus  Capability = "toggle_user_status"
	CapToggleGroupStatus Capability = "toggle_group_status"
)

// Root-only capabilities.
const (
	CapCreateUser        Capability = "create_user"
	CapDeleteUser        Capability = "delete_user"
	CapAssignRoles       Capability = "assign_roles"
	CapCreateGroup       Capability = "create_group"
	CapDeleteGroup       Capability = "delete_group"
	CapAssignManagers    Capability = "assign_managers"
	CapEditSystemConfig  Capability = "edit_system_config"
	CapToggleMaintenance Capability = "toggle_maintenance"
	CapRevokeAllSessions Capability = "revoke_all_sessions"
)

// CapabilitySet is the set of actions an identity is currently permitted
// to perform.
type CapabilitySet map[Capability]struct{}

// Has reports whether the set contains cap.
func (s CapabilitySet) Has(cap Capability) bool {
	_, ok := s[cap]
	return ok
}

// Grant adds cap to the set.
func (s CapabilitySet) Grant(cap Capability) {
	s[cap] = struct{}{}
}

// capabilityOrder fixes the order capabilities appear in API responses.
var capabilityOrder = []Capability{
	CapLogin, CapLogout,
	CapChat, CapCreateConversation, CapDeleteOwnConversation,
	CapUploadFiles, CapDeleteOwnFiles,
	CapShareConversation, CapEditOwnSettings, CapViewGroups,
	CapViewUsers, CapToggleUserStatus, CapToggleGroupStatus,
	CapCreateUser, CapDeleteUser, CapAssignRoles,
	CapCreateGroup, CapDeleteGroup, CapAssignManagers,
	CapEditSystemConfig, CapToggleMaintenance, CapRevokeAllSessions,
}

// List returns the capabilities in a stable order, for API responses.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for _, cap := range capabilityOrder {
		if s.Has(cap) {
			out = append(out, cap)
		}
	}
	return out
}
