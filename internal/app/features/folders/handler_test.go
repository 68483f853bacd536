package folders_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parleyhq/parley/internal/app/features/folders"
	convstore "github.com/parleyhq/parley/internal/app/store/conversations"
	folderstore "github.com/parleyhq/parley/internal/app/store/folders"
	"github.com/parleyhq/parley/internal/domain/models"
	"github.com/parleyhq/parley/internal/testutil"
	"go.uber.org/zap"
)

func newFolderEnv(t *testing.T) (*folders.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := &folders.Handler{
		Log:           zap.NewNop(),
		Folders:       folderstore.New(db),
		Conversations: convstore.New(db),
	}
	return h, testutil.NewFixtures(t, db)
}

func TestForeignFolderIsNotFound(t *testing.T) {
	h, fixtures := newFolderEnv(t)
	ctx := context.Background()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com", models.RoleUser)
	other := fixtures.CreateUser(ctx, "Other", "other@example.com", models.RoleUser)
	folder := fixtures.CreateFolder(ctx, owner.ID, "private")

	req := testutil.NewJSONRequest(t, "POST", "/api/folders/"+folder.ID.Hex()+"/rename",
		testutil.LocalConfig(), map[string]string{"name": "mine now"})
	req = testutil.WithUser(req, &other)
	req = testutil.WithChiURLParam(req, "folderID", folder.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleRename(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign folder rename: status = %d, want 404", rec.Code)
	}
}

func TestDeleteDetachesConversations(t *testing.T) {
	h, fixtures := newFolderEnv(t)
	ctx := context.Background()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com", models.RoleUser)
	folder := fixtures.CreateFolder(ctx, owner.ID, "work")
	conv := fixtures.CreateConversation(ctx, owner.ID, "notes")
	if err := h.Conversations.SetFolder(ctx, conv.ID, &folder.ID); err != nil {
		t.Fatalf("set folder: %v", err)
	}

	req := testutil.AuthenticatedRequest("DELETE", "/api/folders/"+folder.ID.Hex(), testutil.LocalConfig(), &owner)
	req = testutil.WithChiURLParam(req, "folderID", folder.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete folder: %d %s", rec.Code, rec.Body.String())
	}

	// The conversation survives, detached.
	got, err := h.Conversations.GetByID(ctx, conv.ID)
	if err != nil {
		t.Fatalf("conversation should survive folder delete: %v", err)
	}
	if got.FolderID != nil {
		t.Errorf("folder_id should be cleared, got %v", got.FolderID)
	}
	if _, err := h.Folders.GetByID(ctx, folder.ID); err == nil {
		t.Errorf("folder doc should be gone")
	}
}

func TestListCreateRoundTrip(t *testing.T) {
	h, fixtures := newFolderEnv(t)
	ctx := context.Background()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com", models.RoleUser)

	req := testutil.NewJSONRequest(t, "POST", "/api/folders", testutil.LocalConfig(),
		map[string]string{"name": "projects"})
	req = testutil.WithUser(req, &owner)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create folder: %d %s", rec.Code, rec.Body.String())
	}

	req = testutil.AuthenticatedRequest("GET", "/api/folders", testutil.LocalConfig(), &owner)
	rec = httptest.NewRecorder()
	h.HandleList(rec, req)
	var resp struct {
		Folders []models.Folder `json:"folders"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Folders) != 1 || resp.Folders[0].Name != "projects" {
		t.Errorf("list = %+v, want the created folder", resp.Folders)
	}
}
