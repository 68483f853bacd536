// internal/app/features/users/handler.go

// Package users implements the user management surface: listing scoped by
// delegation, root-only create/delete/role assignment, and status toggles
// with their immediate session cascade.
package users

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/app/policy/userpolicy"
	convstore "github.com/parleyhq/parley/internal/app/store/conversations"
	folderstore "github.com/parleyhq/parley/internal/app/store/folders"
	membershipstore "github.com/parleyhq/parley/internal/app/store/memberships"
	sessionstore "github.com/parleyhq/parley/internal/app/store/sessions"
	userstore "github.com/parleyhq/parley/internal/app/store/users"
	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/authutil"
	"github.com/parleyhq/parley/internal/app/system/inputval"
	"github.com/parleyhq/parley/internal/app/system/metrics"
	"github.com/parleyhq/parley/internal/app/system/normalize"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/app/system/respond"
	"github.com/parleyhq/parley/internal/app/system/timeouts"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Log           *zap.Logger
	Users         *userstore.Store
	Memberships   *membershipstore.Store
	Conversations *convstore.Store
	Folders       *folderstore.Store
	Sessions      *sessionstore.Store
	Policy        *userpolicy.Resolver
	Metrics       *metrics.Metrics
}

// HandleList returns the users the actor may see. Root sees everyone;
// a manager sees the members of the groups they manage, plus themself.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if actor.Role == models.RoleRoot {
		users, err := h.Users.List(ctx)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]any{"users": users})
		return
	}

	managed, err := h.Memberships.ManagedGroupIDs(ctx, actor.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	memberIDs, err := h.Memberships.MemberUserIDs(ctx, managed)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	memberIDs = ensureID(memberIDs, actor.ID)

	users, err := h.Users.ListByIDs(ctx, memberIDs)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"users": users})
}

// HandleGet returns one user, subject to the same scoping as the list.
// A user outside the actor's scope is not found, not forbidden: the
// listing never admitted it exists.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	target, err := h.targetUser(ctx, w, r)
	if err != nil {
		return
	}

	if actor.ID != target.ID && actor.Role != models.RoleRoot {
		canManage, err := h.Policy.CanManageUser(ctx, actor, &target)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		if !canManage {
			respond.Error(w, h.Log, outcome.ErrNotFound)
			return
		}
	}
	respond.JSON(w, http.StatusOK, target)
}

type createRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// HandleCreate provisions a local account (root capability).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	name, err := inputval.Name(req.DisplayName)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	if normalize.Email(req.Email) == "" {
		respond.BadRequest(w, "email is required")
		return
	}
	if req.Password == "" {
		respond.BadRequest(w, "password is required")
		return
	}
	role := normalize.Role(req.Role)
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		respond.BadRequest(w, "invalid role")
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	u, err := h.Users.Create(ctx, models.User{
		DisplayName:  name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		AuthMethod:   models.AuthModeLocal,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	h.Log.Info("user created",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", u.Role))
	respond.JSON(w, http.StatusCreated, u)
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus toggles a user between active and disabled, guarded by
// the delegation policy. Disabling revokes every active session for the
// target immediately; the next request on any of those sessions is
// anonymous.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	target, err := h.targetUser(ctx, w, r)
	if err != nil {
		return
	}

	var req statusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	status := normalize.Status(req.Status)
	if status != models.StatusActive && status != models.StatusDisabled {
		respond.BadRequest(w, "status must be active or disabled")
		return
	}

	canManage, err := h.Policy.CanManageUser(ctx, actor, &target)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if !canManage {
		respond.Error(w, h.Log, outcome.ErrForbidden)
		return
	}

	if err := h.Users.SetStatus(ctx, target.ID, status); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	if status == models.StatusDisabled {
		n, err := h.Sessions.RevokeAllForUser(ctx, target.ID.Hex())
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		h.Metrics.SessionsRevokedTotal.WithLabelValues("disabled").Add(float64(n))
		h.Log.Info("user disabled",
			zap.String("user_id", target.ID.Hex()),
			zap.String("by", actor.ID.Hex()),
			zap.Int("sessions_revoked", n))
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": status})
}

type roleRequest struct {
	Role string `json:"role"`
}

// HandleSetRole assigns a role (root capability). Changing your own role
// is refused so the last root cannot demote themself out of the system.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	target, err := h.targetUser(ctx, w, r)
	if err != nil {
		return
	}
	if actor.ID == target.ID {
		respond.Error(w, h.Log, outcome.ErrConflict)
		return
	}

	var req roleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	role := normalize.Role(req.Role)
	if !models.ValidRole(role) {
		respond.BadRequest(w, "invalid role")
		return
	}

	if err := h.Users.SetRole(ctx, target.ID, role); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("role assigned",
		zap.String("user_id", target.ID.Hex()),
		zap.String("role", role),
		zap.String("by", actor.ID.Hex()))
	respond.JSON(w, http.StatusOK, map[string]string{"role": role})
}

// HandleDelete removes an account and everything hanging off it:
// memberships, owned conversations with their messages, folders, and
// active sessions. Deleting yourself is refused.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	target, err := h.targetUser(ctx, w, r)
	if err != nil {
		return
	}
	if actor.ID == target.ID {
		respond.Error(w, h.Log, outcome.ErrConflict)
		return
	}

	if err := h.Memberships.DeleteByUser(ctx, target.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Conversations.DeleteByOwner(ctx, target.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Folders.DeleteByOwner(ctx, target.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Users.Delete(ctx, target.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	n, err := h.Sessions.RevokeAllForUser(ctx, target.ID.Hex())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Metrics.SessionsRevokedTotal.WithLabelValues("user_deleted").Add(float64(n))

	h.Log.Info("user deleted",
		zap.String("user_id", target.ID.Hex()),
		zap.String("by", actor.ID.Hex()))
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// targetUser resolves the {userID} URL param, writing the error response
// itself. Malformed ids are indistinguishable from absent users.
func (h *Handler) targetUser(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, h.Log, outcome.ErrNotFound)
		return models.User{}, outcome.ErrNotFound
	}
	u, err := h.Users.GetByID(ctx, oid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return models.User{}, err
	}
	return u, nil
}

func ensureID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
