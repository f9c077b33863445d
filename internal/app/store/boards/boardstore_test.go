package boardstore_test

import (
	"errors"
	"testing"

	boardstore "github.com/dalemusser/taskboard/internal/app/store/boards"
	"github.com/dalemusser/taskboard/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateGetList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := boardstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws, owner := primitive.NewObjectID(), primitive.NewObjectID()
	roadmap, err := store.Create(ctx, ws, owner, "Roadmap")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, ws, owner, "backlog"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, primitive.NewObjectID(), owner, "Elsewhere"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByID(ctx, roadmap.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Roadmap" || got.WorkspaceID != ws || got.OwnerID != owner {
		t.Errorf("GetByID = %+v", got)
	}

	list, err := store.ListByWorkspace(ctx, ws)
	if err != nil {
		t.Fatalf("ListByWorkspace failed: %v", err)
	}
	if len(list) != 2 || list[0].Name != "backlog" || list[1].Name != "Roadmap" {
		t.Errorf("ListByWorkspace = %v", list)
	}
}

func TestStore_Errors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := boardstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, primitive.NewObjectID(), primitive.NewObjectID(), " "); !errors.Is(err, boardstore.ErrEmptyName) {
		t.Errorf("empty name: err = %v", err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, boardstore.ErrNotFound) {
		t.Errorf("GetByID: err = %v, want ErrNotFound", err)
	}
	if err := store.Rename(ctx, primitive.NewObjectID(), "x"); !errors.Is(err, boardstore.ErrNotFound) {
		t.Errorf("Rename: err = %v, want ErrNotFound", err)
	}
}
