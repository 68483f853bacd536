// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/waffle/config"
	settingsstore "github.com/parleyhq/parley/internal/app/store/settings"
	userstore "github.com/parleyhq/parley/internal/app/store/users"
	"github.com/parleyhq/parley/internal/app/system/authutil"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after DB connections and schema
// setup: seed the system configuration singleton and make sure a root
// account exists when one is configured.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	settings := settingsstore.New(deps.MongoDatabase)
	if err := settings.Seed(ctx); err != nil {
		return fmt.Errorf("seed system config: %w", err)
	}

	if appCfg.RootEmail == "" {
		return nil
	}
	return ensureRootUser(ctx, userstore.New(deps.MongoDatabase), appCfg, logger)
}

// ensureRootUser promotes the configured account to root, creating it
// first if it does not exist yet.
func ensureRootUser(ctx context.Context, users *userstore.Store, appCfg AppConfig, logger *zap.Logger) error {
	existing, err := users.GetByEmail(ctx, appCfg.RootEmail)
	if err == nil {
		if existing.Role == models.RoleRoot {
			return nil
		}
		if err := users.SetRole(ctx, existing.ID, models.RoleRoot); err != nil {
			return fmt.Errorf("promote root user: %w", err)
		}
		logger.Info("promoted existing user to root", zap.String("user_id", existing.ID.Hex()))
		return nil
	}
	if !errors.Is(err, outcome.ErrNotFound) {
		return fmt.Errorf("look up root user: %w", err)
	}

	if appCfg.RootPassword == "" {
		return fmt.Errorf("root_password is required to create root user %q", appCfg.RootEmail)
	}
	hash, err := authutil.HashPassword(appCfg.RootPassword)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}
	created, err := users.Create(ctx, models.User{
		DisplayName:  "Root",
		Email:        appCfg.RootEmail,
		PasswordHash: hash,
		Role:         models.RoleRoot,
		AuthMethod:   models.AuthModeLocal,
	})
	if err != nil {
		return fmt.Errorf("create root user: %w", err)
	}
	logger.Info("created root user", zap.String("user_id", created.ID.Hex()))
	return nil
}
