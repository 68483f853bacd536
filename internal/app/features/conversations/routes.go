// internal/app/features/conversations/routes.go
package conversations

import (
	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/app/system/authz"
	"github.com/parleyhq/parley/internal/app/system/gates"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.With(gates.RequireCapability(authz.CapChat, h.Log)).Get("/", h.HandleList)
	r.With(gates.RequireCapability(authz.CapCreateConversation, h.Log)).Post("/", h.HandleCreate)

	r.Route("/{conversationID}", func(r chi.Router) {
		r.Use(gates.RequireCapability(authz.CapChat, h.Log))

		r.Get("/", h.HandleGet)
		r.Put("/", h.HandleRename)
		r.With(gates.RequireCapability(authz.CapDeleteOwnConversation, h.Log)).Delete("/", h.HandleDelete)
		r.Post("/messages", h.HandleAppendMessage)
		r.Post("/share", h.HandleShare)
		r.Post("/unshare", h.HandleUnshare)
		r.Post("/folder", h.HandleSetFolder)
	})
	return r
}
