// Package gates provides the route-level authorization gates: the
// auth-mode capability gate, the maintenance gate, and capability checks.
//
// Every mutating or viewing route passes, in order, through the mode gate
// (is this capability class present at all under the current auth mode?),
// the maintenance gate, and the capability check derived from the request
// identity. Resource-scoped decisions (delegation, sharing) happen after
// these, in the policy layer.
package gates

import (
	"net/http"

	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/authz"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/app/system/respond"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.uber.org/zap"
)

// Maintenance returns middleware enforcing maintenance mode: while it is
// on, only a verified root identity proceeds. Everyone else receives the
// distinct maintenance outcome rather than a generic authorization
// failure, and the denial consumes nothing (no session slot, no failed
// login).
func Maintenance(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := auth.Config(r)
			if !cfg.MaintenanceMode {
				next.ServeHTTP(w, r)
				return
			}
			user, ok := auth.CurrentUser(r)
			if ok && user.Role == models.RoleRoot && !user.Disabled() {
				next.ServeHTTP(w, r)
				return
			}
			respond.Error(w, log, outcome.ErrMaintenance)
		})
	}
}

// RequireMode returns middleware that only admits requests while the
// system is in the given auth mode. Used to keep the login flow out of
// none/sso modes.
func RequireMode(mode string, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.Config(r).AuthMode != mode {
				respond.Error(w, log, outcome.ErrNotFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSignedIn returns middleware rejecting requests with no identity.
// In mode "none" there is nothing to sign in as, so the route is absent
// (not found) rather than forbidden.
func RequireSignedIn(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.Config(r).AuthMode == models.AuthModeNone {
				respond.Error(w, log, outcome.ErrNotFound)
				return
			}
			if _, ok := auth.CurrentUser(r); !ok {
				respond.Error(w, log, outcome.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability returns middleware that derives the request identity's
// capability set and rejects requests lacking cap. Capabilities entirely
// absent under the current mode (sharing in mode "none", say) surface as
// not found: the surface does not exist, it is not merely forbidden.
func RequireCapability(cap authz.Capability, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Check(r, cap); err != nil {
				respond.Error(w, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Check evaluates a single capability for the request identity and returns
// the precise denial outcome, or nil when allowed. Handlers use it inline
// when a route hosts actions with different capability requirements.
func Check(r *http.Request, cap authz.Capability) error {
	cfg := auth.Config(r)
	user, _ := auth.CurrentUser(r)

	if authz.Derive(user, cfg.AuthMode).Has(cap) {
		return nil
	}

	// Distinguish the denials: a capability class that cannot exist under
	// this mode is NotFound; no identity is Unauthenticated; an identity
	// lacking the capability is Forbidden.
	if !modeSupports(cfg.AuthMode, cap) {
		return outcome.ErrNotFound
	}
	if user == nil {
		return outcome.ErrUnauthenticated
	}
	return outcome.ErrForbidden
}

// modeSupports reports whether any identity could hold cap under the given
// mode: root is the upper bound of the capability lattice.
func modeSupports(mode string, cap authz.Capability) bool {
	probe := &models.User{Role: models.RoleRoot, Status: models.StatusActive}
	return authz.Derive(probe, mode).Has(cap)
}
