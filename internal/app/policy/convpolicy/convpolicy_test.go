package convpolicy

import (
	"testing"

	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func conv(ownerID primitive.ObjectID, shared ...primitive.ObjectID) *models.Conversation {
	return &models.Conversation{
		ID:                 primitive.NewObjectID(),
		OwnerID:            ownerID,
		SharedWithGroupIDs: shared,
	}
}

func TestCanView(t *testing.T) {
	owner := primitive.NewObjectID()
	reader := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	g := primitive.NewObjectID()

	c := conv(owner, g)

	if !CanView(c, owner, nil) {
		t.Error("owner can always view")
	}
	if !CanView(c, reader, []primitive.ObjectID{g}) {
		t.Error("member of a shared group can view")
	}
	if CanView(c, stranger, []primitive.ObjectID{primitive.NewObjectID()}) {
		t.Error("non-member must not view")
	}
	if CanView(conv(owner), reader, []primitive.ObjectID{g}) {
		t.Error("unshared conversation is owner-only")
	}
}

func TestCanModify_SharedReaderHasNoControl(t *testing.T) {
	owner := primitive.NewObjectID()
	reader := primitive.NewObjectID()
	g := primitive.NewObjectID()
	c := conv(owner, g)

	if !CanModify(c, owner) {
		t.Error("owner has full control")
	}
	// Reader can view but never modify: delete and reshare are owner-only.
	if CanModify(c, reader) {
		t.Error("shared visibility must not grant control")
	}
}

func TestClassify_OwnedWinsOverShared(t *testing.T) {
	owner := primitive.NewObjectID()
	g := primitive.NewObjectID()
	// Owner is also a member of the group their conversation is shared
	// with; it must still classify as owned, never double-counted.
	c := conv(owner, g)
	if got := Classify(c, owner, []primitive.ObjectID{g}); got != Owned {
		t.Errorf("Classify = %v, want Owned", got)
	}

	reader := primitive.NewObjectID()
	if got := Classify(c, reader, []primitive.ObjectID{g}); got != SharedWithMe {
		t.Errorf("Classify = %v, want SharedWithMe", got)
	}
	if got := Classify(c, reader, nil); got != NotVisible {
		t.Errorf("Classify = %v, want NotVisible", got)
	}
}

func TestMergeShareIDs_IdempotentUnion(t *testing.T) {
	g1 := primitive.NewObjectID()
	g2 := primitive.NewObjectID()
	g3 := primitive.NewObjectID()

	got := MergeShareIDs([]primitive.ObjectID{g1, g2}, []primitive.ObjectID{g2, g3, g3})
	want := []primitive.ObjectID{g1, g2, g3}
	if len(got) != len(want) {
		t.Fatalf("merged length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("merged[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Re-merging the same request changes nothing.
	again := MergeShareIDs(got, []primitive.ObjectID{g2, g3})
	if len(again) != len(got) {
		t.Error("merge is not idempotent")
	}
}

func TestShareUnshareRoundTrip(t *testing.T) {
	g1 := primitive.NewObjectID()
	g2 := primitive.NewObjectID()
	before := []primitive.ObjectID{g1}

	shared := MergeShareIDs(before, []primitive.ObjectID{g2})
	after := RemoveShareIDs(shared, []primitive.ObjectID{g2})

	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("share then unshare did not round-trip: %v -> %v", before, after)
	}
}

func TestRemoveShareIDs_EmptiesSet(t *testing.T) {
	g1 := primitive.NewObjectID()
	g2 := primitive.NewObjectID()
	c := conv(primitive.NewObjectID(), g1, g2)

	if !c.IsShared() {
		t.Fatal("conversation with groups should report shared")
	}
	c.SharedWithGroupIDs = RemoveShareIDs(c.SharedWithGroupIDs, []primitive.ObjectID{g1, g2})
	if c.IsShared() {
		t.Error("removing every group must clear the shared flag")
	}
	if len(c.SharedWithGroupIDs) != 0 {
		t.Errorf("expected empty set, got %v", c.SharedWithGroupIDs)
	}
}
