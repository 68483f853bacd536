// internal/app/features/logout/routes.go
package logout

import (
	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/app/system/gates"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogout)
	r.With(gates.RequireSignedIn(h.Log)).Post("/force", h.HandleForceLogout)
	return r
}
