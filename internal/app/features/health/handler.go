// internal/app/features/health/handler.go
package health

import (
	"context"
	"encoding/json"
	"net/http"

	sessionstore "github.com/parleyhq/parley/internal/app/store/sessions"
	"github.com/parleyhq/parley/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds the dependencies probed by the health check.
type Handler struct {
	Client   *mongo.Client
	Sessions *sessionstore.Store
	Log      *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(client *mongo.Client, sessions *sessionstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Sessions: sessions, Log: logger}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Sessions string `json:"sessions"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health: 200 when mongo and redis both answer, 503
// otherwise.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Sessions: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}
	if err := h.Sessions.Ping(ctx); err != nil {
		h.Log.Error("health-check: redis ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Sessions = "disconnected"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	_ = json.NewEncoder(w).Encode(resp)
}
