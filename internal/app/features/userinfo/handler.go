// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/authz"
	"github.com/parleyhq/parley/internal/app/system/respond"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Log *zap.Logger
}

func NewHandler(log *zap.Logger) *Handler {
	return &Handler{Log: log}
}

type meResponse struct {
	AuthMode     string             `json:"auth_mode"`
	User         *models.User       `json:"user,omitempty"`
	Capabilities []authz.Capability `json:"capabilities"`
}

// HandleMe reports the request identity and its derived capability set.
// Anonymous requests get an answer too: in mode "none" that is the base
// capability set, elsewhere just login.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	cfg := auth.Config(r)
	user, _ := auth.CurrentUser(r)

	respond.JSON(w, http.StatusOK, meResponse{
		AuthMode:     cfg.AuthMode,
		User:         user,
		Capabilities: authz.Derive(user, cfg.AuthMode).List(),
	})
}
