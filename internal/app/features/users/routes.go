// internal/app/features/users/routes.go
package users

import (
	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/app/system/authz"
	"github.com/parleyhq/parley/internal/app/system/gates"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.With(gates.RequireCapability(authz.CapViewUsers, h.Log)).Get("/", h.HandleList)
	r.With(gates.RequireCapability(authz.CapCreateUser, h.Log)).Post("/", h.HandleCreate)

	r.Route("/{userID}", func(r chi.Router) {
		r.With(gates.RequireCapability(authz.CapViewUsers, h.Log)).Get("/", h.HandleGet)
		r.With(gates.RequireCapability(authz.CapDeleteUser, h.Log)).Delete("/", h.HandleDelete)
		r.With(gates.RequireCapability(authz.CapToggleUserStatus, h.Log)).Post("/status", h.HandleSetStatus)
		r.With(gates.RequireCapability(authz.CapAssignRoles, h.Log)).Post("/role", h.HandleSetRole)
	})
	return r
}
