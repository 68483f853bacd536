// internal/app/features/groups/handler.go

// Package groups implements user group management: root-only create,
// delete, and manager assignment; delegated rename, status, and member
// changes; membership-scoped listing for everyone else.
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/app/policy/userpolicy"
	convstore "github.com/parleyhq/parley/internal/app/store/conversations"
	groupstore "github.com/parleyhq/parley/internal/app/store/groups"
	membershipstore "github.com/parleyhq/parley/internal/app/store/memberships"
	userstore "github.com/parleyhq/parley/internal/app/store/users"
	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/inputval"
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
	Groups        *groupstore.Store
	Memberships   *membershipstore.Store
	Users         *userstore.Store
	Conversations *convstore.Store
	Policy        *userpolicy.Resolver
}

// HandleList returns the groups visible to the actor: root sees all,
// everyone else sees the groups they belong to.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		groups []models.UserGroup
		err    error
	)
	if actor.Role == models.RoleRoot {
		groups, err = h.Groups.List(ctx)
	} else {
		var ids []primitive.ObjectID
		ids, err = h.Memberships.GroupIDs(ctx, actor.ID)
		if err == nil {
			groups, err = h.Groups.ListByIDs(ctx, ids)
		}
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"groups": groups})
}

type memberView struct {
	User models.User `json:"user"`
	Role string      `json:"role"`
}

type groupDetail struct {
	Group   models.UserGroup `json:"group"`
	Members []memberView     `json:"members"`
}

// HandleGet returns a group with its annotated member list. Visible to
// root and to the group's own members; everyone else gets not found.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	g, err := h.targetGroup(ctx, w, r)
	if err != nil {
		return
	}

	records, err := h.Memberships.ListByGroup(ctx, g.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	if actor.Role != models.RoleRoot {
		visible := false
		for _, m := range records {
			if m.UserID == actor.ID {
				visible = true
				break
			}
		}
		if !visible {
			respond.Error(w, h.Log, outcome.ErrNotFound)
			return
		}
	}

	ids := make([]primitive.ObjectID, 0, len(records))
	roleByUser := make(map[primitive.ObjectID]string, len(records))
	for _, m := range records {
		ids = append(ids, m.UserID)
		roleByUser[m.UserID] = m.Role
	}
	users, err := h.Users.ListByIDs(ctx, ids)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	members := make([]memberView, 0, len(users))
	for _, u := range users {
		members = append(members, memberView{User: u, Role: roleByUser[u.ID]})
	}
	respond.JSON(w, http.StatusOK, groupDetail{Group: g, Members: members})
}

type nameRequest struct {
	Name string `json:"name"`
}

// HandleCreate makes a new group (root capability).
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
	g, err := h.Groups.Create(ctx, name)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("group created", zap.String("group_id", g.ID.Hex()))
	respond.JSON(w, http.StatusCreated, g)
}

// HandleRename changes a group's name, guarded by the delegation policy.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	g, err := h.targetGroup(ctx, w, r)
	if err != nil {
		return
	}
	if !h.requireManage(ctx, w, actor, g.ID) {
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
	if err := h.Groups.Rename(ctx, g.ID, name); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"name": name})
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus toggles a group between active and disabled.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	g, err := h.targetGroup(ctx, w, r)
	if err != nil {
		return
	}
	if !h.requireManage(ctx, w, actor, g.ID) {
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
	if err := h.Groups.SetStatus(ctx, g.ID, status); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("group status changed",
		zap.String("group_id", g.ID.Hex()),
		zap.String("status", status),
		zap.String("by", actor.ID.Hex()))
	respond.JSON(w, http.StatusOK, map[string]string{"status": status})
}

// HandleDelete removes a group and cascades: membership records go, and
// the group is pulled out of every conversation's share set. The
// conversations themselves survive, merely less shared.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	g, err := h.targetGroup(ctx, w, r)
	if err != nil {
		return
	}

	if err := h.Conversations.RemoveGroupFromAll(ctx, g.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Memberships.DeleteByGroup(ctx, g.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Groups.Delete(ctx, g.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("group deleted", zap.String("group_id", g.ID.Hex()))
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type memberRequest struct {
	UserID string `json:"user_id"`
}

// HandleAddMember adds a user to the group, guarded by the delegation
// policy. Adding someone already in the group is a conflict.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	g, err := h.targetGroup(ctx, w, r)
	if err != nil {
		return
	}
	if !h.requireManage(ctx, w, actor, g.ID) {
		return
	}

	var req memberRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		respond.BadRequest(w, "invalid user_id")
		return
	}
	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	if err := h.Memberships.Add(ctx, g.ID, userID, models.MembershipMember); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// HandleRemoveMember removes a user from the group. Removing a managing
// member is a manager change and stays root-only.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, outcome.ErrUnauthenticated)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	g, err := h.targetGroup(ctx, w, r)
	if err != nil {
		return
	}
	if !h.requireManage(ctx, w, actor, g.ID) {
		return
	}
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, h.Log, outcome.ErrNotFound)
		return
	}

	isManager, err := h.Memberships.IsManager(ctx, g.ID, userID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if isManager && actor.Role != models.RoleRoot {
		respond.Error(w, h.Log, outcome.ErrForbidden)
		return
	}

	if err := h.Memberships.Remove(ctx, g.ID, userID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// HandlePromoteManager makes an existing member a manager of the group
// (root capability). Promoting a non-member is a conflict: membership
// comes first, management sits on top of it.
func (h *Handler) HandlePromoteManager(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	g, err := h.targetGroup(ctx, w, r)
	if err != nil {
		return
	}
	var req memberRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		respond.BadRequest(w, "invalid user_id")
		return
	}

	err = h.Memberships.SetRole(ctx, g.ID, userID, models.MembershipManager)
	if errors.Is(err, outcome.ErrNotFound) {
		respond.Error(w, h.Log, outcome.ErrConflict)
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "promoted"})
}

// HandleDemoteManager turns a manager back into a plain member (root
// capability). They stay in the group.
func (h *Handler) HandleDemoteManager(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	g, err := h.targetGroup(ctx, w, r)
	if err != nil {
		return
	}
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, h.Log, outcome.ErrNotFound)
		return
	}
	if err := h.Memberships.SetRole(ctx, g.ID, userID, models.MembershipMember); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "demoted"})
}

// requireManage enforces the delegation policy on the group, writing the
// denial itself. Reports whether the caller may proceed.
func (h *Handler) requireManage(ctx context.Context, w http.ResponseWriter, actor *models.User, groupID primitive.ObjectID) bool {
	canManage, err := h.Policy.CanManageGroup(ctx, actor, groupID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return false
	}
	if !canManage {
		respond.Error(w, h.Log, outcome.ErrForbidden)
		return false
	}
	return true
}

func (h *Handler) targetGroup(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.UserGroup, error) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		respond.Error(w, h.Log, outcome.ErrNotFound)
		return models.UserGroup{}, outcome.ErrNotFound
	}
	g, err := h.Groups.GetByID(ctx, oid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return models.UserGroup{}, err
	}
	return g, nil
}
