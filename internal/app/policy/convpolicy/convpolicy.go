// internal/app/policy/convpolicy/convpolicy.go

// Package convpolicy decides conversation visibility and control. Ownership
// grants full control; group sharing grants read-only visibility (view the
// conversation and its messages, never edit, delete, or reshare).
package convpolicy

import (
	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanView reports whether the actor may see the conversation at all:
// owner, or member of a group the conversation is shared with.
func CanView(conv *models.Conversation, actorID primitive.ObjectID, actorGroupIDs []primitive.ObjectID) bool {
	if conv == nil {
		return false
	}
	if conv.OwnerID == actorID {
		return true
	}
	return sharedWith(conv, actorGroupIDs)
}

// CanModify reports whether the actor has full control: delete, rename,
// append messages, share/unshare, move to folder. Only the owner does;
// shared visibility never escalates.
func CanModify(conv *models.Conversation, actorID primitive.ObjectID) bool {
	return conv != nil && conv.OwnerID == actorID
}

// Classification of a conversation relative to an actor, for list
// partitioning.
type Classification int

const (
	NotVisible Classification = iota
	Owned
	SharedWithMe
)

// Classify partitions without double-counting: a conversation the actor
// owns is always Owned, even when the actor is also a member of a group in
// its own shared set.
func Classify(conv *models.Conversation, actorID primitive.ObjectID, actorGroupIDs []primitive.ObjectID) Classification {
	if conv == nil {
		return NotVisible
	}
	if conv.OwnerID == actorID {
		return Owned
	}
	if sharedWith(conv, actorGroupIDs) {
		return SharedWithMe
	}
	return NotVisible
}

func sharedWith(conv *models.Conversation, actorGroupIDs []primitive.ObjectID) bool {
	if len(conv.SharedWithGroupIDs) == 0 || len(actorGroupIDs) == 0 {
		return false
	}
	member := make(map[primitive.ObjectID]struct{}, len(actorGroupIDs))
	for _, id := range actorGroupIDs {
		member[id] = struct{}{}
	}
	for _, id := range conv.SharedWithGroupIDs {
		if _, ok := member[id]; ok {
			return true
		}
	}
	return false
}

// MergeShareIDs returns existing ∪ requested with order preserved
// (existing first) and no duplicates. Sharing is idempotent: resharing
// with groups already present changes nothing.
func MergeShareIDs(existing, requested []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(existing)+len(requested))
	out := make([]primitive.ObjectID, 0, len(existing)+len(requested))
	for _, id := range existing {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range requested {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// RemoveShareIDs returns existing \ removed. Removing the last group makes
// the conversation unshared (the caller derives isShared from emptiness).
func RemoveShareIDs(existing, removed []primitive.ObjectID) []primitive.ObjectID {
	if len(removed) == 0 {
		return existing
	}
	drop := make(map[primitive.ObjectID]struct{}, len(removed))
	for _, id := range removed {
		drop[id] = struct{}{}
	}
	out := make([]primitive.ObjectID, 0, len(existing))
	for _, id := range existing {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
