// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"

	sessionstore "github.com/parleyhq/parley/internal/app/store/sessions"
	userstore "github.com/parleyhq/parley/internal/app/store/users"
	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/authutil"
	"github.com/parleyhq/parley/internal/app/system/metrics"
	"github.com/parleyhq/parley/internal/app/system/normalize"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/app/system/respond"
	"github.com/parleyhq/parley/internal/app/system/timeouts"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	Users      *userstore.Store
	Sessions   *sessionstore.Store
	SessionMgr *auth.SessionManager
	Metrics    *metrics.Metrics
}

func NewHandler(log *zap.Logger, users *userstore.Store, sessions *sessionstore.Store, mgr *auth.SessionManager, m *metrics.Metrics) *Handler {
	return &Handler{Log: log, Users: users, Sessions: sessions, SessionMgr: mgr, Metrics: m}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt string      `json:"expires_at"`
}

// HandleLogin verifies credentials and starts a session. The route only
// exists in local mode. Failed credentials and disabled accounts get the
// same unauthenticated answer so the response does not reveal which part
// was wrong; maintenance is checked after the credentials so the denial
// is accurate but consumes no session slot.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	req.Email = normalize.Email(req.Email)
	if req.Email == "" || req.Password == "" {
		respond.BadRequest(w, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, outcome.ErrNotFound) {
			h.fail(w, "bad_credentials")
			return
		}
		respond.Error(w, h.Log, err)
		return
	}
	if !authutil.VerifyPassword(u.PasswordHash, req.Password) {
		h.fail(w, "bad_credentials")
		return
	}
	if u.Disabled() {
		h.fail(w, "disabled")
		return
	}

	cfg := auth.Config(r)
	if cfg.MaintenanceMode && u.Role != models.RoleRoot {
		h.Metrics.MaintenanceDenialsTotal.Inc()
		respond.Error(w, h.Log, outcome.ErrMaintenance)
		return
	}

	ip, ua := auth.ClientMetaFromRequest(r)
	sess, err := h.Sessions.Create(ctx, &u, sessionstore.ClientMeta{IP: ip, UserAgent: ua}, cfg.AllowMultiLogin)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.SessionMgr.IssueCookie(w, r, sess.Token); err != nil {
		h.Log.Warn("issue session cookie", zap.Error(err))
	}
	if err := h.Users.SetLastLogin(ctx, u.ID, sess.CreatedAt); err != nil {
		h.Log.Warn("record last login", zap.Error(err))
	}

	h.Metrics.LoginSuccessesTotal.Inc()
	h.Log.Info("login",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", u.Role))

	respond.JSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		User:      u,
		ExpiresAt: sess.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *Handler) fail(w http.ResponseWriter, reason string) {
	h.Metrics.LoginFailuresTotal.WithLabelValues(reason).Inc()
	respond.Error(w, h.Log, outcome.ErrUnauthenticated)
}
