// internal/app/store/folders/folderstore.go
package folderstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to a user's conversation folders.
type Store struct {
	c *mongo.Collection
}

// New creates a new folder store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("folders")}
}

// EnsureIndexes creates the per-owner lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetName("idx_folders_owner"),
	})
	return err
}

// Create inserts a new folder for ownerID.
func (s *Store) Create(ctx context.Context, ownerID primitive.ObjectID, name string) (models.Folder, error) {
	if name == "" {
		return models.Folder{}, fmt.Errorf("folder name is required")
	}
	now := time.Now().UTC()
	f := models.Folder{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return models.Folder{}, err
	}
	return f, nil
}

// GetByID fetches one folder.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Folder, error) {
	var f models.Folder
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Folder{}, outcome.ErrNotFound
	}
	if err != nil {
		return models.Folder{}, err
	}
	return f, nil
}

// ListByOwner returns a user's folders sorted by name.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Folder, error) {
	cur, err := s.c.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Folder
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Rename changes a folder's name.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	if name == "" {
		return fmt.Errorf("folder name is required")
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       name,
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

// Delete removes a folder. Conversations inside it are detached by the
// caller, never deleted.
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

// DeleteByOwner removes all of a user's folders, as part of account
// deletion.
func (s *Store) DeleteByOwner(ctx context.Context, ownerID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"owner_id": ownerID})
	return err
}
