// internal/app/system/auth/sessionmanager.go
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	sessionstore "github.com/parleyhq/parley/internal/app/store/sessions"
	"github.com/parleyhq/parley/internal/app/system/metrics"
	"github.com/parleyhq/parley/internal/app/system/timeouts"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.uber.org/zap"
)

const tokenCookieKey = "session_token"

// SessionManager owns the cookie transport for local-mode session tokens
// and the identity-loading middleware for every mode.
type SessionManager struct {
	cookies     *sessions.CookieStore
	cookieName  string
	store       *sessionstore.Store
	users       UserFetcher
	provisioner SSOProvisioner
	config      ConfigSource
	metrics     *metrics.Metrics
	log         *zap.Logger
}

// NewSessionManager builds a SessionManager. sessionKey signs the cookie;
// provide 32+ random chars in production.
func NewSessionManager(sessionKey, cookieName, domain string, secure bool, store *sessionstore.Store, config ConfigSource, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	cookieStore := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	cookieStore.Options = opts

	return &SessionManager{
		cookies:    cookieStore,
		cookieName: cookieName,
		store:      store,
		config:     config,
		log:        logger,
	}, nil
}

// SetUserFetcher wires the fetcher that reloads user data on each request,
// so role changes and disables take effect immediately.
func (m *SessionManager) SetUserFetcher(f UserFetcher) { m.users = f }

// SetSSOProvisioner wires the store that resolves sso-asserted identities.
func (m *SessionManager) SetSSOProvisioner(p SSOProvisioner) { m.provisioner = p }

// SetMetrics wires the collectors recording identity events.
func (m *SessionManager) SetMetrics(mt *metrics.Metrics) { m.metrics = mt }

// Store exposes the underlying session store for logout and revocation
// handlers.
func (m *SessionManager) Store() *sessionstore.Store { return m.store }

// IssueCookie writes the session token into the signed cookie.
func (m *SessionManager) IssueCookie(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := m.cookies.Get(r, m.cookieName)
	sess.Values[tokenCookieKey] = token
	return sess.Save(r, w)
}

// ClearCookie removes the session cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.cookies.Get(r, m.cookieName)
	delete(sess.Values, tokenCookieKey)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

// TokenFromRequest reads the session token from the signed cookie, falling
// back to a bearer Authorization header for API clients.
func (m *SessionManager) TokenFromRequest(r *http.Request) string {
	if sess, err := m.cookies.Get(r, m.cookieName); err == nil {
		if token, ok := sess.Values[tokenCookieKey].(string); ok && token != "" {
			return token
		}
	}
	return bearerToken(r)
}

// LoadIdentity is the global middleware: it snapshots the system config
// and establishes the request identity per the configured auth mode. It
// never rejects; route middleware and handlers decide what an absent
// identity means.
func (m *SessionManager) LoadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg, err := m.config.Current(r.Context())
		if err != nil {
			// Fail closed: without config there is no mode and no identity.
			m.log.Error("system config unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		r = WithConfig(r, cfg)

		switch cfg.AuthMode {
		case models.AuthModeLocal:
			r = m.loadLocalIdentity(r)
		case models.AuthModeSSO:
			r = m.loadSSOIdentity(r, cfg.SSOHeaders)
		}
		// Mode "none": single implicit identity, nothing to load.

		next.ServeHTTP(w, r)
	})
}

func (m *SessionManager) loadLocalIdentity(r *http.Request) *http.Request {
	token := m.TokenFromRequest(r)
	if token == "" {
		return r
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sess, err := m.store.Get(ctx, token)
	if err != nil {
		logSkip(m.log, "session token rejected", err)
		return r
	}
	if m.users == nil {
		return r
	}
	user := m.users.FetchUser(ctx, sess.UserID)
	if user == nil {
		return r
	}
	return WithIdentity(r, &Identity{User: user, SessionToken: token})
}

func (m *SessionManager) loadSSOIdentity(r *http.Request, headers models.SSOHeaderMapping) *http.Request {
	if m.provisioner == nil || headers.ExternalID == "" {
		return r
	}
	externalID := r.Header.Get(headers.ExternalID)
	if externalID == "" {
		return r
	}
	email := r.Header.Get(headers.Email)
	displayName := r.Header.Get(headers.DisplayName)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	user, created, err := m.provisioner.EnsureSSOUser(ctx, externalID, email, displayName)
	if err != nil {
		m.log.Warn("sso identity rejected", zap.Error(err))
		return r
	}
	if user == nil {
		return r
	}
	if created {
		if m.metrics != nil {
			m.metrics.SSOProvisionsTotal.Inc()
		}
		m.log.Info("sso account provisioned",
			zap.String("user_id", user.ID.Hex()),
			zap.String("external_id", externalID))
	}
	return WithIdentity(r, &Identity{User: user})
}
