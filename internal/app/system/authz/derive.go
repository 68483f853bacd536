// internal/app/system/authz/derive.go
package authz

import (
	"github.com/parleyhq/parley/internal/domain/models"
)

// rule grants one capability to a set of roles, optionally requiring an
// identity-bearing auth mode. The whole permission policy is this table;
// Derive only applies the anonymous/disabled short-circuits on top of it,
// so the UI-side and API-side answers cannot drift apart.
type rule struct {
	cap   Capability
	roles []string

	// needsIdentity marks capabilities that are entirely absent in mode
	// "none": sharing, settings, group visibility, and all administrative
	// surfaces. There is no identity to attach them to.
	needsIdentity bool
}

var (
	allRoles = []string{models.RoleUser, models.RoleManager, models.RoleRoot}
	elevated = []string{models.RoleManager, models.RoleRoot}
	rootOnly = []string{models.RoleRoot}
)

var policyTable = []rule{
	// Session.
	{cap: CapLogout, roles: allRoles, needsIdentity: true},

	// Base capabilities for every active role.
	{cap: CapChat, roles: allRoles},
	{cap: CapCreateConversation, roles: allRoles},
	{cap: CapDeleteOwnConversation, roles: allRoles},
	{cap: CapUploadFiles, roles: allRoles},
	{cap: CapDeleteOwnFiles, roles: allRoles},

	// Identity-gated user capabilities.
	{cap: CapShareConversation, roles: allRoles, needsIdentity: true},
	{cap: CapEditOwnSettings, roles: allRoles, needsIdentity: true},
	{cap: CapViewGroups, roles: allRoles, needsIdentity: true},

	// Elevated (manager and root).
	{cap: CapViewUsers, roles: elevated, needsIdentity: true},
	{cap: CapToggleUserStatus, roles: elevated, needsIdentity: true},
	{cap: CapToggleGroupStatus, roles: elevated, needsIdentity: true},

	// Root only.
	{cap: CapCreateUser, roles: rootOnly, needsIdentity: true},
	{cap: CapDeleteUser, roles: rootOnly, needsIdentity: true},
	{cap: CapAssignRoles, roles: rootOnly, needsIdentity: true},
	{cap: CapCreateGroup, roles: rootOnly, needsIdentity: true},
	{cap: CapDeleteGroup, roles: rootOnly, needsIdentity: true},
	{cap: CapAssignManagers, roles: rootOnly, needsIdentity: true},
	{cap: CapEditSystemConfig, roles: rootOnly, needsIdentity: true},
	{cap: CapToggleMaintenance, roles: rootOnly, needsIdentity: true},
	{cap: CapRevokeAllSessions, roles: rootOnly, needsIdentity: true},
}

// Derive computes the capability set for the given identity under the given
// auth mode. user may be nil (anonymous). Precedence:
//
//  1. nil user: in mode "none" the implicit anonymous identity gets the
//     base capabilities; in mode "local" only CapLogin; otherwise nothing.
//  2. disabled user: CapLogout only (and nothing at all in mode "none").
//  3. otherwise the policy table applies, with identity-gated rules
//     skipped in mode "none".
//
// The short-circuits are the only deny-overrides; role math is purely
// additive through the table.
func Derive(user *models.User, mode string) CapabilitySet {
	caps := make(CapabilitySet)

	if user == nil {
		switch mode {
		case models.AuthModeNone:
			// The implicit generic identity chats like a regular user but
			// has no identity-gated surface.
			grantFromTable(caps, models.RoleUser, false)
		case models.AuthModeLocal:
			caps.Grant(CapLogin)
		}
		return caps
	}

	if user.Disabled() {
		if mode != models.AuthModeNone {
			caps.Grant(CapLogout)
		}
		return caps
	}

	grantFromTable(caps, user.Role, mode != models.AuthModeNone)
	return caps
}

func grantFromTable(caps CapabilitySet, role string, hasIdentity bool) {
	for _, r := range policyTable {
		if r.needsIdentity && !hasIdentity {
			continue
		}
		for _, allowed := range r.roles {
			if allowed == role {
				caps.Grant(r.cap)
				break
			}
		}
	}
}
