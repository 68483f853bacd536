// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/app/system/authz"
	"github.com/parleyhq/parley/internal/app/system/gates"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.With(gates.RequireCapability(authz.CapViewGroups, h.Log)).Get("/", h.HandleList)
	r.With(gates.RequireCapability(authz.CapCreateGroup, h.Log)).Post("/", h.HandleCreate)

	r.Route("/{groupID}", func(r chi.Router) {
		r.With(gates.RequireCapability(authz.CapViewGroups, h.Log)).Get("/", h.HandleGet)
		r.With(gates.RequireCapability(authz.CapDeleteGroup, h.Log)).Delete("/", h.HandleDelete)
		r.With(gates.RequireCapability(authz.CapViewGroups, h.Log)).Put("/", h.HandleRename)
		r.With(gates.RequireCapability(authz.CapToggleGroupStatus, h.Log)).Post("/status", h.HandleSetStatus)

		r.With(gates.RequireCapability(authz.CapViewGroups, h.Log)).Post("/members", h.HandleAddMember)
		r.With(gates.RequireCapability(authz.CapViewGroups, h.Log)).Delete("/members/{userID}", h.HandleRemoveMember)

		r.With(gates.RequireCapability(authz.CapAssignManagers, h.Log)).Post("/managers", h.HandlePromoteManager)
		r.With(gates.RequireCapability(authz.CapAssignManagers, h.Log)).Delete("/managers/{userID}", h.HandleDemoteManager)
	})
	return r
}
