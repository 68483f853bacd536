// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	convstore "github.com/parleyhq/parley/internal/app/store/conversations"
	folderstore "github.com/parleyhq/parley/internal/app/store/folders"
	groupstore "github.com/parleyhq/parley/internal/app/store/groups"
	membershipstore "github.com/parleyhq/parley/internal/app/store/memberships"
	settingsstore "github.com/parleyhq/parley/internal/app/store/settings"
	userstore "github.com/parleyhq/parley/internal/app/store/users"
	"go.uber.org/zap"
)

// EnsureSchema creates the unique and lookup indexes every store relies
// on. Uniqueness (user email, group name, one membership per pair) is
// enforced here rather than checked in application code.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	ensure := []func(context.Context) error{
		userstore.New(db).EnsureIndexes,
		groupstore.New(db).EnsureIndexes,
		membershipstore.New(db).EnsureIndexes,
		convstore.New(db).EnsureIndexes,
		folderstore.New(db).EnsureIndexes,
		settingsstore.New(db).EnsureIndexes,
	}
	for _, fn := range ensure {
		if err := fn(ctx); err != nil {
			logger.Error("index creation failed", zap.Error(err))
			return err
		}
	}
	return nil
}
