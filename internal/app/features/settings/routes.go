// internal/app/features/settings/routes.go
package settings

import (
	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/app/system/authz"
	"github.com/parleyhq/parley/internal/app/system/gates"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.With(gates.RequireCapability(authz.CapEditSystemConfig, h.Log)).Get("/", h.HandleGet)
	r.With(gates.RequireCapability(authz.CapEditSystemConfig, h.Log)).Put("/", h.HandleUpdate)
	r.With(gates.RequireCapability(authz.CapToggleMaintenance, h.Log)).Post("/maintenance", h.HandleMaintenance)
	r.With(gates.RequireCapability(authz.CapRevokeAllSessions, h.Log)).Post("/revoke-sessions", h.HandleRevokeSessions)
	return r
}
