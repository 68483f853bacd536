// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateMembership is returned when a user is added to a group
// they already belong to.
var ErrDuplicateMembership = fmt.Errorf("user already in group: %w", outcome.ErrConflict)

// Store provides access to group membership records. One record per
// (group, user) pair; the record's role says whether the member also
// manages the group.
type Store struct {
	c *mongo.Collection
}

// New creates a new membership store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

// EnsureIndexes creates the uniqueness and lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "group_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetName("idx_memberships_pair").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_memberships_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Add inserts a membership record.
func (s *Store) Add(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	if role != models.MembershipMember && role != models.MembershipManager {
		return fmt.Errorf("invalid membership role %q", role)
	}
	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Remove deletes the membership record. Demoting and removing a manager
// is the same single delete; there is no residual member edge to clean.
func (s *Store) Remove(ctx context.Context, groupID, userID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return outcome.ErrNotFound
	}
	return nil
}

// SetRole promotes or demotes an existing member. The user must already
// be in the group; promotion never creates the member edge implicitly.
func (s *Store) SetRole(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	if role != models.MembershipMember && role != models.MembershipManager {
		return fmt.Errorf("invalid membership role %q", role)
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID},
		bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return outcome.ErrNotFound
	}
	return nil
}

// GroupIDs returns the ids of every group the user belongs to.
func (s *Store) GroupIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.groupIDs(ctx, bson.M{"user_id": userID})
}

// ManagedGroupIDs returns the ids of the groups the user manages.
func (s *Store) ManagedGroupIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.groupIDs(ctx, bson.M{"user_id": userID, "role": models.MembershipManager})
}

func (s *Store) groupIDs(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.GroupMembership
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		ids = append(ids, m.GroupID)
	}
	return ids, cur.Err()
}

// ListByGroup returns the membership records of one group.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupMembership, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GroupMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MemberUserIDs returns the distinct user ids across the given groups.
// Used for a manager's member-scoped user listing.
func (s *Store) MemberUserIDs(ctx context.Context, groupIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	raw, err := s.c.Distinct(ctx, "user_id", bson.M{"group_id": bson.M{"$in": groupIDs}})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// IsManager reports whether the user manages the group.
func (s *Store) IsManager(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"role":     models.MembershipManager,
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteByGroup removes every membership record of a group, as part of
// group deletion.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	return err
}

// DeleteByUser removes a user's membership records everywhere, as part
// of account deletion.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
