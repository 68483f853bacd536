// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/parleyhq/parley/internal/app/system/normalize"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateName is returned when a group create or rename collides
// with an existing group's name.
var ErrDuplicateName = fmt.Errorf("group name already in use: %w", outcome.ErrConflict)

// Store provides access to the user groups collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new group store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("user_groups")}
}

// EnsureIndexes creates the case-insensitive unique name index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_ci", Value: 1}},
		Options: options.Index().SetName("idx_groups_name").SetUnique(true),
	})
	return err
}

// Create inserts a new group.
func (s *Store) Create(ctx context.Context, name string) (models.UserGroup, error) {
	now := time.Now().UTC()
	g := models.UserGroup{
		ID:        primitive.NewObjectID(),
		Name:      normalize.Name(name),
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.NameCI = text.Fold(g.Name)
	if g.Name == "" {
		return models.UserGroup{}, fmt.Errorf("group name is required")
	}
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.UserGroup{}, ErrDuplicateName
		}
		return models.UserGroup{}, err
	}
	return g, nil
}

// GetByID fetches one group.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.UserGroup, error) {
	var g models.UserGroup
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.UserGroup{}, outcome.ErrNotFound
	}
	if err != nil {
		return models.UserGroup{}, err
	}
	return g, nil
}

// List returns every group sorted by name.
func (s *Store) List(ctx context.Context) ([]models.UserGroup, error) {
	return s.find(ctx, bson.M{})
}

// ListByIDs returns the groups with the given ids, sorted by name.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.UserGroup, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.UserGroup, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.UserGroup
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Rename changes a group's name.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	name = normalize.Name(name)
	if name == "" {
		return fmt.Errorf("group name is required")
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return outcome.ErrNotFound
	}
	return nil
}

// SetStatus toggles a group between active and disabled. Membership and
// share records are untouched; a disabled group simply stops granting
// visibility and delegation until re-enabled.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	status = normalize.Status(status)
	if status != models.StatusActive && status != models.StatusDisabled {
		return fmt.Errorf("invalid status %q", status)
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return outcome.ErrNotFound
	}
	return nil
}

// Delete removes the group document. Callers use the feature-level
// cascade, which also clears memberships and conversation shares.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return outcome.ErrNotFound
	}
	return nil
}
