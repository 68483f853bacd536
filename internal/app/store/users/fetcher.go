// internal/app/store/users/fetcher.go
package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/parleyhq/parley/internal/app/system/normalize"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FetchUser resolves a session's user id to its current account record.
// Missing or malformed ids yield nil so stale sessions degrade to
// anonymous instead of erroring every request.
func (s *Store) FetchUser(ctx context.Context, userID string) *models.User {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	u, err := s.GetByID(ctx, oid)
	if err != nil {
		return nil
	}
	return &u
}

// EnsureSSOUser finds the account asserted by the identity provider,
// provisioning one with the default role on first sight. The bool
// reports whether this call created the account. Disabled accounts are
// returned as-is; capability derivation handles them.
func (s *Store) EnsureSSOUser(ctx context.Context, externalID, email, displayName string) (*models.User, bool, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&u)
	if err == nil {
		return &u, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	now := time.Now().UTC()
	email = normalize.Email(email)
	fresh := models.User{
		ID:          primitive.NewObjectID(),
		DisplayName: normalize.Name(displayName),
		Email:       email,
		EmailCI:     text.Fold(email),
		Role:        models.RoleUser,
		Status:      models.StatusActive,
		AuthMethod:  models.AuthModeSSO,
		ExternalID:  externalID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if fresh.DisplayName == "" {
		fresh.DisplayName = email
	}

	if _, err := s.c.InsertOne(ctx, fresh); err != nil {
		if wafflemongo.IsDup(err) {
			// Lost a provisioning race; the winner's record is authoritative.
			var existing models.User
			if ferr := s.c.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&existing); ferr == nil {
				return &existing, false, nil
			}
			return nil, false, outcome.ErrConflict
		}
		return nil, false, err
	}
	return &fresh, true, nil
}
