// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Parley.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PARLEY_MONGO_URI, PARLEY_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "parley", Desc: "MongoDB database name"},

	{Name: "redis_url", Default: "redis://localhost:6379/0", Desc: "Redis URL for the session store"},
	{Name: "session_ttl", Default: "24h", Desc: "Session lifetime (e.g., 24h, 90m)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "parley-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Root bootstrap
	{Name: "root_email", Default: "", Desc: "Email of the root user (promotes/creates on startup)"},
	{Name: "root_password", Default: "", Desc: "Initial password when creating the root user"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app. config.LoadWithAppConfig merges .env files, config
// files, environment variables (WAFFLE_* for core, PARLEY_* for app),
// and command-line flags, with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PARLEY", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		RedisURL:   appValues.String("redis_url"),
		SessionTTL: appValues.Duration("session_ttl", 24*time.Hour),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		RootEmail:    appValues.String("root_email"),
		RootPassword: appValues.String("root_password"),
	}
	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation before any
// backends are dialed.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.RedisURL == "" {
		return fmt.Errorf("redis_url is required for the session store")
	}
	if appCfg.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	return nil
}
