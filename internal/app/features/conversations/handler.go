// internal/app/features/conversations/handler.go

// Package conversations implements the conversation surface: the
// partitioned listing, visibility-checked reads, owner-only mutations,
// and the group-sharing set operations.
//
// In mode "none" the single implicit identity owns everything it creates
// under the zero owner id; sharing and folders are identity-gated and do
// not exist there.
package conversations

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/app/policy/convpolicy"
	convstore "github.com/parleyhq/parley/internal/app/store/conversations"
	groupstore "github.com/parleyhq/parley/internal/app/store/groups"
	membershipstore "github.com/parleyhq/parley/internal/app/store/memberships"
	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/authz"
	"github.com/parleyhq/parley/internal/app/system/gates"
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
	Conversations *convstore.Store
	Groups        *groupstore.Store
	Memberships   *membershipstore.Store
}

// actorID resolves who owns and sees conversations for this request. In
// mode "none" that is the zero id shared by the implicit identity.
func actorID(r *http.Request) primitive.ObjectID {
	if user, ok := auth.CurrentUser(r); ok {
		return user.ID
	}
	return primitive.NilObjectID
}

// actorGroupIDs loads the actor's group memberships for visibility
// checks. The implicit identity belongs to no groups.
func (h *Handler) actorGroupIDs(ctx context.Context, r *http.Request) ([]primitive.ObjectID, error) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return nil, nil
	}
	return h.Memberships.GroupIDs(ctx, user.ID)
}

type listResponse struct {
	Owned        []models.Conversation `json:"owned"`
	SharedWithMe []models.Conversation `json:"shared_with_me"`
}

// HandleList returns the actor's conversations partitioned into owned
// and shared-with-me. A conversation the actor owns never appears in the
// shared partition, even when it is shared back through one of the
// actor's own groups.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	me := actorID(r)
	owned, err := h.Conversations.ListOwned(ctx, me)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	groupIDs, err := h.actorGroupIDs(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	shared, err := h.Conversations.ListSharedWith(ctx, me, groupIDs)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if owned == nil {
		owned = []models.Conversation{}
	}
	if shared == nil {
		shared = []models.Conversation{}
	}
	respond.JSON(w, http.StatusOK, listResponse{Owned: owned, SharedWithMe: shared})
}

type createRequest struct {
	Title string `json:"title"`
}

// HandleCreate starts a new conversation owned by the actor.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	title, err := inputval.Title(req.Title)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	c, err := h.Conversations.Create(ctx, actorID(r), title)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}

type detailResponse struct {
	Conversation   models.Conversation `json:"conversation"`
	Messages       []models.Message    `json:"messages"`
	Classification string              `json:"classification"`
}

// HandleGet returns a conversation with its messages. Visible to the
// owner and to members of groups it is shared with; everyone else gets
// not found, never forbidden — invisible conversations do not exist.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, groupIDs, err := h.visibleConversation(ctx, w, r)
	if err != nil {
		return
	}
	msgs, err := h.Conversations.ListMessages(ctx, c.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	class := "shared_with_me"
	if convpolicy.Classify(&c, actorID(r), groupIDs) == convpolicy.Owned {
		class = "owned"
	}
	respond.JSON(w, http.StatusOK, detailResponse{
		Conversation:   c,
		Messages:       msgs,
		Classification: class,
	})
}

type messageRequest struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// HandleAppendMessage adds a message to an owned conversation. Shared
// visibility is read-only: a reader who can see the conversation still
// cannot write into it.
func (h *Handler) HandleAppendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, _, err := h.visibleConversation(ctx, w, r)
	if err != nil {
		return
	}
	if !convpolicy.CanModify(&c, actorID(r)) {
		respond.Error(w, h.Log, outcome.ErrForbidden)
		return
	}

	var req messageRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Content == "" {
		respond.BadRequest(w, "content is required")
		return
	}
	if req.Sender == "" {
		req.Sender = "user"
	}
	m, err := h.Conversations.AppendMessage(ctx, c.ID, req.Sender, req.Content)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, m)
}

type renameRequest struct {
	Title string `json:"title"`
}

// HandleRename retitles an owned conversation.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, _, err := h.visibleConversation(ctx, w, r)
	if err != nil {
		return
	}
	if !convpolicy.CanModify(&c, actorID(r)) {
		respond.Error(w, h.Log, outcome.ErrForbidden)
		return
	}
	var req renameRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	title, err := inputval.Title(req.Title)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	if err := h.Conversations.Rename(ctx, c.ID, title); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"title": title})
}

// HandleDelete removes an owned conversation and its messages. Sharing
// grants never extend to deletion.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	c, _, err := h.visibleConversation(ctx, w, r)
	if err != nil {
		return
	}
	if !convpolicy.CanModify(&c, actorID(r)) {
		respond.Error(w, h.Log, outcome.ErrForbidden)
		return
	}
	if err := h.Conversations.Delete(ctx, c.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type shareRequest struct {
	GroupIDs []string `json:"group_ids"`
}

// HandleShare shares an owned conversation with groups. Ownership is the
// only precondition; the owner need not belong to the target groups.
// Sharing is idempotent; a group that does not exist is refused before
// anything is written.
func (h *Handler) HandleShare(w http.ResponseWriter, r *http.Request) {
	h.handleShareChange(w, r, true)
}

// HandleUnshare removes groups from an owned conversation's share set.
// Removing the last one makes it unshared again.
func (h *Handler) HandleUnshare(w http.ResponseWriter, r *http.Request) {
	h.handleShareChange(w, r, false)
}

func (h *Handler) handleShareChange(w http.ResponseWriter, r *http.Request, adding bool) {
	if err := gates.Check(r, authz.CapShareConversation); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, _, err := h.visibleConversation(ctx, w, r)
	if err != nil {
		return
	}
	if !convpolicy.CanModify(&c, actorID(r)) {
		respond.Error(w, h.Log, outcome.ErrForbidden)
		return
	}

	var req shareRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	requested := make([]primitive.ObjectID, 0, len(req.GroupIDs))
	for _, raw := range req.GroupIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			respond.BadRequest(w, "invalid group id")
			return
		}
		requested = append(requested, id)
	}
	if len(requested) == 0 {
		respond.BadRequest(w, "group_ids is required")
		return
	}

	if adding {
		// The target groups must exist; a phantom group in the share set
		// would grant nothing but never go away.
		found, err := h.Groups.ListByIDs(ctx, requested)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		if len(found) != len(requested) {
			respond.Error(w, h.Log, outcome.ErrNotFound)
			return
		}
		if err := h.Conversations.Share(ctx, c.ID, requested); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		c.SharedWithGroupIDs = convpolicy.MergeShareIDs(c.SharedWithGroupIDs, requested)
	} else {
		if err := h.Conversations.Unshare(ctx, c.ID, requested); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		c.SharedWithGroupIDs = convpolicy.RemoveShareIDs(c.SharedWithGroupIDs, requested)
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"shared_with_group_ids": c.SharedWithGroupIDs,
		"is_shared":             c.IsShared(),
	})
}

type folderRequest struct {
	FolderID *string `json:"folder_id"`
}

// HandleSetFolder moves an owned conversation into a folder, or out of
// any folder when folder_id is null.
func (h *Handler) HandleSetFolder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, _, err := h.visibleConversation(ctx, w, r)
	if err != nil {
		return
	}
	if !convpolicy.CanModify(&c, actorID(r)) {
		respond.Error(w, h.Log, outcome.ErrForbidden)
		return
	}

	var req folderRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	var folderID *primitive.ObjectID
	if req.FolderID != nil {
		id, err := primitive.ObjectIDFromHex(*req.FolderID)
		if err != nil {
			respond.BadRequest(w, "invalid folder_id")
			return
		}
		folderID = &id
	}
	if err := h.Conversations.SetFolder(ctx, c.ID, folderID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"folder_id": req.FolderID})
}

// visibleConversation resolves {conversationID} and enforces visibility,
// writing the error response itself. Conversations outside the actor's
// view are not found; whether they exist is not leaked.
func (h *Handler) visibleConversation(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Conversation, []primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "conversationID"))
	if err != nil {
		respond.Error(w, h.Log, outcome.ErrNotFound)
		return models.Conversation{}, nil, outcome.ErrNotFound
	}
	c, err := h.Conversations.GetByID(ctx, oid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return models.Conversation{}, nil, err
	}
	groupIDs, err := h.actorGroupIDs(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return models.Conversation{}, nil, err
	}
	if !convpolicy.CanView(&c, actorID(r), groupIDs) {
		respond.Error(w, h.Log, outcome.ErrNotFound)
		return models.Conversation{}, nil, outcome.ErrNotFound
	}
	return c, groupIDs, nil
}
