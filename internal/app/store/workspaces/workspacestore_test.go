package workspacestore_test

import (
	"errors"
	"testing"

	workspacestore "github.com/dalemusser/taskboard/internal/app/store/workspaces"
	"github.com/dalemusser/taskboard/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	created, err := store.Create(ctx, "  Product   Team ", owner)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "Product Team" || created.NameCI == "" {
		t.Errorf("Name = %q, NameCI = %q", created.Name, created.NameCI)
	}
	if !created.HasMember(owner) || len(created.Members) != 1 || created.Members[0].Role != "owner" {
		t.Errorf("owner not recorded as member: %+v", created.Members)
	}

	if _, err := store.Create(ctx, "   ", owner); !errors.Is(err, workspacestore.ErrEmptyName) {
		t.Errorf("empty name: err = %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, workspacestore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_MembersAndListing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	zeta, err := store.Create(ctx, "Zeta", alice)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, "alpha", alice); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.AddMember(ctx, zeta.ID, bob, ""); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.AddMember(ctx, zeta.ID, bob, "member"); !errors.Is(err, workspacestore.ErrAlreadyMember) {
		t.Errorf("second AddMember: err = %v, want ErrAlreadyMember", err)
	}
	if err := store.AddMember(ctx, primitive.NewObjectID(), bob, ""); !errors.Is(err, workspacestore.ErrNotFound) {
		t.Errorf("AddMember unknown workspace: err = %v, want ErrNotFound", err)
	}

	mine, err := store.ListForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(mine) != 2 || mine[0].Name != "alpha" || mine[1].Name != "Zeta" {
		t.Errorf("ListForUser(alice) = %v", mine)
	}
	theirs, err := store.ListForUser(ctx, bob)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(theirs) != 1 || theirs[0].ID != zeta.ID {
		t.Errorf("ListForUser(bob) = %v", theirs)
	}
}

func TestStore_AddBoard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws, err := store.Create(ctx, "Boards", primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	board := primitive.NewObjectID()
	for i := 0; i < 2; i++ {
		if err := store.AddBoard(ctx, ws.ID, board); err != nil {
			t.Fatalf("AddBoard failed: %v", err)
		}
	}
	got, err := store.GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.BoardIDs) != 1 || got.BoardIDs[0] != board {
		t.Errorf("BoardIDs = %v, want [%s]", got.BoardIDs, board.Hex())
	}
}
