package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, displayName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:          primitive.NewObjectID(),
		DisplayName: displayName,
		Email:       email,
		EmailCI:     text.Fold(email),
		Role:        role,
		Status:      models.StatusActive,
		AuthMethod:  models.AuthModeLocal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateDisabledUser creates a test user with disabled status.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, displayName, email, role string) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, displayName, email, role)
	_, err := f.db.Collection("users").UpdateOne(ctx,
		map[string]any{"_id": u.ID},
		map[string]any{"$set": map[string]any{"status": models.StatusDisabled}})
	if err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	u.Status = models.StatusDisabled
	return u
}

// CreateGroup creates a test user group.
func (f *Fixtures) CreateGroup(ctx context.Context, name string) models.UserGroup {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.UserGroup{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("user_groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// AddMembership creates a membership record linking a user to a group.
// role is models.MembershipMember or models.MembershipManager.
func (f *Fixtures) AddMembership(ctx context.Context, groupID, userID primitive.ObjectID, role string) models.GroupMembership {
	f.t.Helper()

	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateConversation creates a test conversation, optionally shared with
// groups.
func (f *Fixtures) CreateConversation(ctx context.Context, ownerID primitive.ObjectID, title string, sharedWith ...primitive.ObjectID) models.Conversation {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Conversation{
		ID:                 primitive.NewObjectID(),
		Title:              title,
		OwnerID:            ownerID,
		SharedWithGroupIDs: sharedWith,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := f.db.Collection("conversations").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test conversation: %v", err)
	}
	return c
}

// CreateFolder creates a test conversation folder.
func (f *Fixtures) CreateFolder(ctx context.Context, ownerID primitive.ObjectID, name string) models.Folder {
	f.t.Helper()

	now := time.Now().UTC()
	folder := models.Folder{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("folders").InsertOne(ctx, folder); err != nil {
		f.t.Fatalf("failed to create test folder: %v", err)
	}
	return folder
}
