package convstore_test

import (
	"context"
	"errors"
	"testing"

	convstore "github.com/parleyhq/parley/internal/app/store/conversations"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) *convstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	s := convstore.New(db)
	if err := s.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return s
}

func TestShareIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	group := primitive.NewObjectID()
	c, err := s.Create(ctx, owner, "plans")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Share(ctx, c.ID, []primitive.ObjectID{group}); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if err := s.Share(ctx, c.ID, []primitive.ObjectID{group}); err != nil {
		t.Fatalf("re-Share: %v", err)
	}

	got, err := s.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.SharedWithGroupIDs) != 1 {
		t.Errorf("share set = %v, want exactly one entry", got.SharedWithGroupIDs)
	}
	if !got.IsShared() {
		t.Errorf("conversation should report shared")
	}
}

func TestUnshareLastGroup(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	g1 := primitive.NewObjectID()
	g2 := primitive.NewObjectID()
	c, err := s.Create(ctx, owner, "plans")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Share(ctx, c.ID, []primitive.ObjectID{g1, g2}); err != nil {
		t.Fatalf("Share: %v", err)
	}

	if err := s.Unshare(ctx, c.ID, []primitive.ObjectID{g1}); err != nil {
		t.Fatalf("Unshare: %v", err)
	}
	got, _ := s.GetByID(ctx, c.ID)
	if len(got.SharedWithGroupIDs) != 1 || got.SharedWithGroupIDs[0] != g2 {
		t.Errorf("share set after partial unshare = %v, want [%v]", got.SharedWithGroupIDs, g2)
	}

	// Unsharing a group not in the set is ignored.
	if err := s.Unshare(ctx, c.ID, []primitive.ObjectID{g1}); err != nil {
		t.Fatalf("redundant Unshare: %v", err)
	}

	if err := s.Unshare(ctx, c.ID, []primitive.ObjectID{g2}); err != nil {
		t.Fatalf("Unshare last: %v", err)
	}
	got, _ = s.GetByID(ctx, c.ID)
	if got.IsShared() {
		t.Errorf("conversation should be unshared after last group removed")
	}
}

func TestListPartitionOwnedWins(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	reader := primitive.NewObjectID()
	group := primitive.NewObjectID()

	mine, err := s.Create(ctx, owner, "mine")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Shared back through a group the owner is also in: still owned.
	if err := s.Share(ctx, mine.ID, []primitive.ObjectID{group}); err != nil {
		t.Fatalf("Share: %v", err)
	}

	owned, err := s.ListOwned(ctx, owner)
	if err != nil {
		t.Fatalf("ListOwned: %v", err)
	}
	if len(owned) != 1 {
		t.Fatalf("owned = %d, want 1", len(owned))
	}
	sharedForOwner, err := s.ListSharedWith(ctx, owner, []primitive.ObjectID{group})
	if err != nil {
		t.Fatalf("ListSharedWith: %v", err)
	}
	if len(sharedForOwner) != 0 {
		t.Errorf("owner's own conversation must not appear in the shared partition")
	}

	sharedForReader, err := s.ListSharedWith(ctx, reader, []primitive.ObjectID{group})
	if err != nil {
		t.Fatalf("ListSharedWith: %v", err)
	}
	if len(sharedForReader) != 1 {
		t.Errorf("group member should see the shared conversation, got %d", len(sharedForReader))
	}
}

func TestRemoveGroupFromAll(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	group := primitive.NewObjectID()
	keep := primitive.NewObjectID()

	c1, _ := s.Create(ctx, owner, "one")
	c2, _ := s.Create(ctx, owner, "two")
	if err := s.Share(ctx, c1.ID, []primitive.ObjectID{group, keep}); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if err := s.Share(ctx, c2.ID, []primitive.ObjectID{group}); err != nil {
		t.Fatalf("Share: %v", err)
	}

	if err := s.RemoveGroupFromAll(ctx, group); err != nil {
		t.Fatalf("RemoveGroupFromAll: %v", err)
	}

	got1, _ := s.GetByID(ctx, c1.ID)
	got2, _ := s.GetByID(ctx, c2.ID)
	if len(got1.SharedWithGroupIDs) != 1 || got1.SharedWithGroupIDs[0] != keep {
		t.Errorf("c1 share set = %v, want [%v]", got1.SharedWithGroupIDs, keep)
	}
	if got2.IsShared() {
		t.Errorf("c2 should be fully unshared")
	}
}

func TestMessagesAndCount(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	c, err := s.Create(ctx, owner, "chat")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.AppendMessage(ctx, c.ID, "user", "hello"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if _, err := s.AppendMessage(ctx, c.ID, "assistant", "hi"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	msgs, err := s.ListMessages(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "hello" {
		t.Errorf("messages out of order or missing: %+v", msgs)
	}

	got, _ := s.GetByID(ctx, c.ID)
	if got.MessageCount != 2 {
		t.Errorf("message count = %d, want 2", got.MessageCount)
	}

	if _, err := s.AppendMessage(ctx, primitive.NewObjectID(), "user", "lost"); !errors.Is(err, outcome.ErrNotFound) {
		t.Errorf("append to missing conversation = %v, want ErrNotFound", err)
	}
}

func TestFolderDetach(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	folder := primitive.NewObjectID()
	c, err := s.Create(ctx, owner, "filed")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.SetFolder(ctx, c.ID, &folder); err != nil {
		t.Fatalf("SetFolder: %v", err)
	}
	got, _ := s.GetByID(ctx, c.ID)
	if got.FolderID == nil || *got.FolderID != folder {
		t.Fatalf("folder not set: %+v", got.FolderID)
	}

	if err := s.ClearFolderRefs(ctx, folder); err != nil {
		t.Fatalf("ClearFolderRefs: %v", err)
	}
	got, _ = s.GetByID(ctx, c.ID)
	if got.FolderID != nil {
		t.Errorf("conversation should be detached from deleted folder")
	}
}

func TestDeleteRemovesMessages(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	c, _ := s.Create(ctx, owner, "gone")
	if _, err := s.AppendMessage(ctx, c.ID, "user", "bye"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	if err := s.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetByID(ctx, c.ID); !errors.Is(err, outcome.ErrNotFound) {
		t.Errorf("deleted conversation should be not found")
	}
	msgs, err := s.ListMessages(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages should be deleted with the conversation, got %d", len(msgs))
	}
}
