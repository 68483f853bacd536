// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"

	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/metrics"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/app/system/respond"
	"github.com/parleyhq/parley/internal/app/system/timeouts"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Metrics    *metrics.Metrics
}

func NewHandler(log *zap.Logger, mgr *auth.SessionManager, m *metrics.Metrics) *Handler {
	return &Handler{Log: log, SessionMgr: mgr, Metrics: m}
}

// HandleLogout ends the current session. Logout stays available to
// disabled users (it is their one remaining capability) and during
// maintenance. Revoking an already-dead session still succeeds.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if auth.Config(r).AuthMode == models.AuthModeNone {
		respond.Error(w, h.Log, outcome.ErrNotFound)
		return
	}

	token := auth.SessionToken(r)
	if token == "" {
		token = h.SessionMgr.TokenFromRequest(r)
	}
	if token != "" {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		if err := h.SessionMgr.Store().Revoke(ctx, token); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		h.Metrics.SessionsRevokedTotal.WithLabelValues("logout").Inc()
	}
	h.SessionMgr.ClearCookie(w, r)
	respond.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// HandleForceLogout ends every session of the signed-in user (the
// logout-everywhere self-revoke).
func (h *Handler) HandleForceLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	n, err := h.SessionMgr.Store().RevokeAllForUser(ctx, user.ID.Hex())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Metrics.SessionsRevokedTotal.WithLabelValues("logout_all").Add(float64(n))
	h.SessionMgr.ClearCookie(w, r)
	respond.JSON(w, http.StatusOK, map[string]any{"status": "logged_out", "revoked": n})
}
