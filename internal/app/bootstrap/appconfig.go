// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, timeouts); AppConfig is everything specific to this
// application: backend connection strings, session transport, and the
// bootstrap identity.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Redis session backend
	RedisURL   string        // Redis connection URL (e.g., redis://localhost:6379/0)
	SessionTTL time.Duration // How long a session lives without re-login

	// Session cookie transport
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Root bootstrap: promoted/created on startup so a fresh deployment
	// has an account that can reach the settings surface.
	RootEmail    string
	RootPassword string
}
