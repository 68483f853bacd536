// internal/app/features/folders/handler.go

// Package folders implements personal conversation folders. A folder
// belongs to one owner; deleting it detaches its conversations but never
// deletes them.
package folders

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	convstore "github.com/parleyhq/parley/internal/app/store/conversations"
	folderstore "github.com/parleyhq/parley/internal/app/store/folders"
	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/inputval"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/app/system/respond"
	"github.com/parleyhq/parley/internal/app/system/timeouts"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Log           *zap.Logger
	Folders       *folderstore.Store
	Conversations *convstore.Store
}

func actorID(r *http.Request) primitive.ObjectID {
	if user, ok := auth.CurrentUser(r); ok {
		return user.ID
	}
	return primitive.NilObjectID
}

// HandleList returns the actor's folders.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	folders, err := h.Folders.ListByOwner(ctx, actorID(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"folders": folders})
}

type nameRequest struct {
	Name string `json:"name"`
}

// HandleCreate makes a new folder for the actor.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	name, err := inputval.Name(req.Name)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	f, err := h.Folders.Create(ctx, actorID(r), name)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, f)
}

// HandleRename changes a folder's name.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	f, err := h.ownedFolder(ctx, w, r)
	if err != nil {
		return
	}
	var req nameRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	name, err := inputval.Name(req.Name)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	if err := h.Folders.Rename(ctx, f.ID, name); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"name": name})
}

// HandleDelete removes a folder and detaches its conversations.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	f, err := h.ownedFolder(ctx, w, r)
	if err != nil {
		return
	}
	if err := h.Conversations.ClearFolderRefs(ctx, f.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Folders.Delete(ctx, f.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ownedFolder resolves {folderID} and enforces ownership, writing the
// error response itself. Foreign folders are not found.
func (h *Handler) ownedFolder(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Folder, error) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "folderID"))
	if err != nil {
		respond.Error(w, h.Log, outcome.ErrNotFound)
		return models.Folder{}, outcome.ErrNotFound
	}
	f, err := h.Folders.GetByID(ctx, oid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return models.Folder{}, err
	}
	if f.OwnerID != actorID(r) {
		respond.Error(w, h.Log, outcome.ErrNotFound)
		return models.Folder{}, outcome.ErrNotFound
	}
	return f, nil
}
