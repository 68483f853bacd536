// internal/app/features/folders/routes.go
package folders

import (
	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/app/system/authz"
	"github.com/parleyhq/parley/internal/app/system/gates"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(gates.RequireCapability(authz.CapChat, h.Log))

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Put("/{folderID}", h.HandleRename)
	r.Delete("/{folderID}", h.HandleDelete)
	return r
}
