package userpolicy

import (
	"context"
	"testing"

	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeMemberships serves id sets from maps, standing in for the store.
type fakeMemberships struct {
	groups  map[primitive.ObjectID][]primitive.ObjectID
	managed map[primitive.ObjectID][]primitive.ObjectID
}

func (f *fakeMemberships) GroupIDs(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.groups[userID], nil
}

func (f *fakeMemberships) ManagedGroupIDs(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.managed[userID], nil
}

func TestResolver_CanManageUser(t *testing.T) {
	ctx := context.Background()
	g1 := primitive.NewObjectID()
	g2 := primitive.NewObjectID()

	m := userWithRole(models.RoleManager)
	u := userWithRole(models.RoleUser)
	other := userWithRole(models.RoleUser)

	r := NewResolver(&fakeMemberships{
		groups: map[primitive.ObjectID][]primitive.ObjectID{
			u.ID:     {g1, g2},
			other.ID: {g2},
		},
		managed: map[primitive.ObjectID][]primitive.ObjectID{
			m.ID: {g1},
		},
	})

	ok, err := r.CanManageUser(ctx, m, u)
	if err != nil || !ok {
		t.Fatalf("expected manager of G1 to manage member of G1, got ok=%v err=%v", ok, err)
	}

	ok, err = r.CanManageUser(ctx, m, other)
	if err != nil || ok {
		t.Fatalf("expected no authority over user outside managed groups, got ok=%v err=%v", ok, err)
	}

	root := userWithRole(models.RoleRoot)
	ok, err = r.CanManageUser(ctx, root, m)
	if err != nil || !ok {
		t.Fatalf("root should manage managers, got ok=%v err=%v", ok, err)
	}
}

func TestResolver_CanManageGroup(t *testing.T) {
	ctx := context.Background()
	g1 := primitive.NewObjectID()
	g2 := primitive.NewObjectID()

	m := userWithRole(models.RoleManager)
	r := NewResolver(&fakeMemberships{
		managed: map[primitive.ObjectID][]primitive.ObjectID{m.ID: {g1}},
	})

	if ok, _ := r.CanManageGroup(ctx, m, g1); !ok {
		t.Error("manager should manage their own group")
	}
	if ok, _ := r.CanManageGroup(ctx, m, g2); ok {
		t.Error("manager must not manage a foreign group")
	}
}
