// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/app/system/normalize"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// singletonKey identifies the one runtime configuration document.
const singletonKey = "system"

// cacheTTL bounds how stale a request's config snapshot can be. Every
// request reads the config, so this keeps the hot path off the database
// while mode and maintenance flips still land within a few seconds.
const cacheTTL = 3 * time.Second

// Store provides access to the singleton system configuration.
type Store struct {
	c *mongo.Collection

	mu       sync.RWMutex
	cached   models.SystemConfig
	cachedAt time.Time
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("system_config")}
}

// EnsureIndexes creates the singleton key index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetName("idx_config_key").SetUnique(true),
	})
	return err
}

type configDoc struct {
	ID  primitive.ObjectID `bson:"_id,omitempty"`
	Key string             `bson:"key"`

	AuthMode        string                  `bson:"auth_mode"`
	AllowMultiLogin bool                    `bson:"allow_multi_login"`
	MaintenanceMode bool                    `bson:"maintenance_mode"`
	SSOHeaders      models.SSOHeaderMapping `bson:"sso_headers,omitempty"`
	UpdatedAt       *time.Time              `bson:"updated_at,omitempty"`
	UpdatedByID     *primitive.ObjectID     `bson:"updated_by_id,omitempty"`
}

func (d configDoc) config() models.SystemConfig {
	return models.SystemConfig{
		ID:              d.ID,
		AuthMode:        d.AuthMode,
		AllowMultiLogin: d.AllowMultiLogin,
		MaintenanceMode: d.MaintenanceMode,
		SSOHeaders:      d.SSOHeaders,
		UpdatedAt:       d.UpdatedAt,
		UpdatedByID:     d.UpdatedByID,
	}
}

// Defaults is the configuration used before anyone has saved one.
func Defaults() models.SystemConfig {
	return models.SystemConfig{
		AuthMode:        models.AuthModeLocal,
		AllowMultiLogin: false,
		MaintenanceMode: false,
		SSOHeaders: models.SSOHeaderMapping{
			ExternalID:  "X-Auth-Request-User",
			Email:       "X-Auth-Request-Email",
			DisplayName: "X-Auth-Request-Preferred-Username",
		},
	}
}

// Get reads the configuration straight from the database, falling back
// to defaults when none has been saved yet.
func (s *Store) Get(ctx context.Context) (models.SystemConfig, error) {
	var doc configDoc
	err := s.c.FindOne(ctx, bson.M{"key": singletonKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Defaults(), nil
	}
	if err != nil {
		return models.SystemConfig{}, err
	}
	return doc.config(), nil
}

// Current returns a possibly cached snapshot of the configuration. It
// backs the per-request identity middleware.
func (s *Store) Current(ctx context.Context) (models.SystemConfig, error) {
	s.mu.RLock()
	if !s.cachedAt.IsZero() && time.Since(s.cachedAt) < cacheTTL {
		cfg := s.cached
		s.mu.RUnlock()
		return cfg, nil
	}
	s.mu.RUnlock()

	cfg, err := s.Get(ctx)
	if err != nil {
		return models.SystemConfig{}, err
	}

	s.mu.Lock()
	s.cached = cfg
	s.cachedAt = time.Now()
	s.mu.Unlock()
	return cfg, nil
}

// Save replaces the configuration, recording who changed it. The cache
// is refreshed immediately so the writer observes their own change.
func (s *Store) Save(ctx context.Context, cfg models.SystemConfig, updatedBy primitive.ObjectID) (models.SystemConfig, error) {
	cfg.AuthMode = normalize.AuthMode(cfg.AuthMode)
	if !models.ValidAuthMode(cfg.AuthMode) {
		return models.SystemConfig{}, fmt.Errorf("invalid auth mode %q", cfg.AuthMode)
	}
	now := time.Now().UTC()
	cfg.UpdatedAt = &now
	cfg.UpdatedByID = &updatedBy

	_, err := s.c.UpdateOne(ctx,
		bson.M{"key": singletonKey},
		bson.M{"$set": bson.M{
			"auth_mode":         cfg.AuthMode,
			"allow_multi_login": cfg.AllowMultiLogin,
			"maintenance_mode":  cfg.MaintenanceMode,
			"sso_headers":       cfg.SSOHeaders,
			"updated_at":        cfg.UpdatedAt,
			"updated_by_id":     cfg.UpdatedByID,
		}},
		options.Update().SetUpsert(true))
	if err != nil {
		return models.SystemConfig{}, err
	}

	s.mu.Lock()
	s.cached = cfg
	s.cachedAt = time.Now()
	s.mu.Unlock()
	return cfg, nil
}

// SetMaintenance flips only the maintenance flag, preserving the rest
// of the configuration.
func (s *Store) SetMaintenance(ctx context.Context, on bool, updatedBy primitive.ObjectID) (models.SystemConfig, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return models.SystemConfig{}, err
	}
	cfg.MaintenanceMode = on
	return s.Save(ctx, cfg, updatedBy)
}

// Seed writes the default configuration if none exists, so a fresh
// deployment starts in a known mode.
func (s *Store) Seed(ctx context.Context) error {
	err := s.c.FindOne(ctx, bson.M{"key": singletonKey}).Err()
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	def := Defaults()
	doc := configDoc{
		ID:              primitive.NewObjectID(),
		Key:             singletonKey,
		AuthMode:        def.AuthMode,
		AllowMultiLogin: def.AllowMultiLogin,
		MaintenanceMode: def.MaintenanceMode,
		SSOHeaders:      def.SSOHeaders,
	}
	_, err = s.c.InsertOne(ctx, doc)
	return err
}
