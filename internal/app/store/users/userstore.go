// internal/app/store/users/userstore.go
package userstore

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

// ErrDuplicateEmail is returned when a create collides with an existing
// account's email.
var ErrDuplicateEmail = fmt.Errorf("email already in use: %w", outcome.ErrConflict)

// Store provides access to the users collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new user store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique keys the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_email").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetName("idx_users_external").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"external_id": bson.M{"$type": "string"}}),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new user with normalized fields and defaults applied.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	if u.ID == primitive.NilObjectID {
		u.ID = primitive.NewObjectID()
	}
	u.DisplayName = normalize.Name(u.DisplayName)
	u.Email = normalize.Email(u.Email)
	u.EmailCI = text.Fold(u.Email)
	u.Role = normalize.Role(u.Role)
	u.Status = normalize.Status(u.Status)
	u.CreatedAt = now
	u.UpdatedAt = now

	if !models.ValidRole(u.Role) {
		return models.User{}, fmt.Errorf("invalid role %q", u.Role)
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID fetches one user. Absent users map to the NotFound outcome so a
// mutation against a concurrently deleted account surfaces correctly.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, outcome.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail fetches one user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, outcome.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// List returns all users sorted by display name.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "display_name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListByIDs returns the users with the given ids, sorted by display name.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "display_name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetStatus toggles an account between active and disabled. Session
// revocation for disables is the caller's next step and must not be
// skipped.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	status = normalize.Status(status)
	if status != models.StatusActive && status != models.StatusDisabled {
		return fmt.Errorf("invalid status %q", status)
	}
	return s.updateOne(ctx, id, bson.M{"status": status})
}

// SetRole assigns a new role (root capability).
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if !models.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	return s.updateOne(ctx, id, bson.M{"role": role})
}

// SetLastLogin records a successful login time.
func (s *Store) SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.updateOne(ctx, id, bson.M{"last_login": at.UTC()})
}

// Delete removes the user document. Membership and conversation cleanup
// belongs to the deletion cascade in the calling handler.
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

func (s *Store) updateOne(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return outcome.ErrNotFound
	}
	return nil
}
