// internal/app/features/settings/handler.go

// Package settings exposes the root-only runtime configuration surface:
// auth mode, multi-login, sso header mapping, maintenance, and the
// global session revoke.
package settings

import (
	"context"
	"net/http"

	sessionstore "github.com/parleyhq/parley/internal/app/store/sessions"
	settingsstore "github.com/parleyhq/parley/internal/app/store/settings"
	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/metrics"
	"github.com/parleyhq/parley/internal/app/system/normalize"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/app/system/respond"
	"github.com/parleyhq/parley/internal/app/system/timeouts"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Log      *zap.Logger
	Settings *settingsstore.Store
	Sessions *sessionstore.Store
	Metrics  *metrics.Metrics
}

// HandleGet returns the current system configuration.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	cfg, err := h.Settings.Get(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, cfg)
}

type updateRequest struct {
	AuthMode        *string                  `json:"auth_mode"`
	AllowMultiLogin *bool                    `json:"allow_multi_login"`
	SSOHeaders      *models.SSOHeaderMapping `json:"sso_headers"`
}

// HandleUpdate applies a partial configuration change. A mode switch
// takes effect on the next request; sessions issued under the old mode
// simply stop resolving to identities rather than being torn down here.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	var req updateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	cfg, err := h.Settings.Get(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if req.AuthMode != nil {
		mode := normalize.AuthMode(*req.AuthMode)
		if !models.ValidAuthMode(mode) {
			respond.BadRequest(w, "auth_mode must be none, local, or sso")
			return
		}
		cfg.AuthMode = mode
	}
	if req.AllowMultiLogin != nil {
		cfg.AllowMultiLogin = *req.AllowMultiLogin
	}
	if req.SSOHeaders != nil {
		cfg.SSOHeaders = *req.SSOHeaders
	}

	saved, err := h.Settings.Save(ctx, cfg, actor.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("system config updated",
		zap.String("auth_mode", saved.AuthMode),
		zap.Bool("allow_multi_login", saved.AllowMultiLogin),
		zap.String("by", actor.ID.Hex()))
	respond.JSON(w, http.StatusOK, saved)
}

type maintenanceRequest struct {
	Enabled bool `json:"enabled"`
}

// HandleMaintenance flips maintenance mode. Existing sessions survive;
// non-root holders are blocked at the gate until it lifts.
func (h *Handler) HandleMaintenance(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	var req maintenanceRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	saved, err := h.Settings.SetMaintenance(ctx, req.Enabled, actor.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("maintenance mode changed",
		zap.Bool("enabled", saved.MaintenanceMode),
		zap.String("by", actor.ID.Hex()))
	respond.JSON(w, http.StatusOK, map[string]bool{"maintenance_mode": saved.MaintenanceMode})
}

// HandleRevokeSessions revokes every active session for every user. The
// caller's own session goes too; they log in again like everyone else.
func (h *Handler) HandleRevokeSessions(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	n, err := h.Sessions.RevokeAll(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Metrics.SessionsRevokedTotal.WithLabelValues("revoke_all").Add(float64(n))
	if actor != nil {
		h.Log.Info("all sessions revoked",
			zap.Int("count", n),
			zap.String("by", actor.ID.Hex()))
	}
	respond.JSON(w, http.StatusOK, map[string]int{"revoked": n})
}
