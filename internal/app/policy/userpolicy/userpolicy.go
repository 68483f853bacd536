// internal/app/policy/userpolicy/userpolicy.go

// Package userpolicy decides whether an actor may act on a target user or
// user group. Root acts everywhere; managers act only inside groups they
// manage, and never on peers or root; plain users manage nobody.
//
// The pure functions take precomputed id sets so they can be tested and
// reused without a database. Resolver wraps them with membership lookups
// for handlers.
package userpolicy

import (
	"context"

	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanManageUser reports whether actor may mutate target (status toggle,
// profile edits through the management surface).
//
//   - false when actor and target are the same user: self-management does
//     not go through this path.
//   - true unconditionally for root.
//   - managers never manage peers or root, regardless of group overlap;
//     otherwise they manage a target iff the target belongs to at least one
//     group the actor manages.
//   - false for plain users.
func CanManageUser(actor, target *models.User, actorManagedGroupIDs, targetGroupIDs []primitive.ObjectID) bool {
	if actor == nil || target == nil {
		return false
	}
	if actor.ID == target.ID {
		return false
	}
	switch actor.Role {
	case models.RoleRoot:
		return true
	case models.RoleManager:
		if target.Role == models.RoleManager || target.Role == models.RoleRoot {
			return false
		}
		return intersects(actorManagedGroupIDs, targetGroupIDs)
	default:
		return false
	}
}

// CanManageGroup reports whether actor may mutate the group itself
// (rename, status toggle, member add/remove). Assigning or removing a
// manager is root-only and is not granted here.
func CanManageGroup(actor *models.User, groupID primitive.ObjectID, actorManagedGroupIDs []primitive.ObjectID) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RoleRoot:
		return true
	case models.RoleManager:
		for _, id := range actorManagedGroupIDs {
			if id == groupID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func intersects(a, b []primitive.ObjectID) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[primitive.ObjectID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// MembershipSource supplies the group id sets the pure checks need. The
// membership store implements it.
type MembershipSource interface {
	// GroupIDs returns every group the user belongs to.
	GroupIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	// ManagedGroupIDs returns the groups the user manages.
	ManagedGroupIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Resolver answers delegation questions against live membership data.
type Resolver struct {
	memberships MembershipSource
}

// NewResolver creates a Resolver backed by the given membership source.
func NewResolver(memberships MembershipSource) *Resolver {
	return &Resolver{memberships: memberships}
}

// CanManageUser loads both id sets and applies the pure check. Root skips
// the lookups entirely.
func (r *Resolver) CanManageUser(ctx context.Context, actor, target *models.User) (bool, error) {
	if actor == nil || target == nil || actor.ID == target.ID {
		return false, nil
	}
	if actor.Role == models.RoleRoot {
		return true, nil
	}
	if actor.Role != models.RoleManager {
		return false, nil
	}
	managed, err := r.memberships.ManagedGroupIDs(ctx, actor.ID)
	if err != nil {
		return false, err
	}
	targetGroups, err := r.memberships.GroupIDs(ctx, target.ID)
	if err != nil {
		return false, err
	}
	return CanManageUser(actor, target, managed, targetGroups), nil
}

// CanManageGroup loads the actor's managed set and applies the pure check.
func (r *Resolver) CanManageGroup(ctx context.Context, actor *models.User, groupID primitive.ObjectID) (bool, error) {
	if actor == nil {
		return false, nil
	}
	if actor.Role == models.RoleRoot {
		return true, nil
	}
	if actor.Role != models.RoleManager {
		return false, nil
	}
	managed, err := r.memberships.ManagedGroupIDs(ctx, actor.ID)
	if err != nil {
		return false, err
	}
	return CanManageGroup(actor, groupID, managed), nil
}
