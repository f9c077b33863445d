package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/indexes"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/taskboard/internal/testutil"
)

func TestStore_CreateAndAuthenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{FullName: "  Ada Lovelace ", Email: "ADA@Example.com"}, "correct horse")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Email != "ada@example.com" {
		t.Errorf("Email = %q, want normalized", created.Email)
	}
	if created.FullName != "Ada Lovelace" || created.FullNameCI == "" {
		t.Errorf("FullName = %q, FullNameCI = %q", created.FullName, created.FullNameCI)
	}
	if created.PasswordHash == "" || created.PasswordHash == "correct horse" {
		t.Error("expected a bcrypt hash to be stored")
	}

	u, err := store.Authenticate(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if u.ID != created.ID {
		t.Errorf("Authenticate returned %s, want %s", u.ID.Hex(), created.ID.Hex())
	}

	if _, err := store.Authenticate(ctx, "ada@example.com", "wrong password"); !errors.Is(err, userstore.ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := store.Authenticate(ctx, "nobody@example.com", "whatever1"); !errors.Is(err, userstore.ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v", err)
	}

	if err := store.SetStatus(ctx, created.ID, "disabled"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if _, err := store.Authenticate(ctx, "ada@example.com", "correct horse"); !errors.Is(err, userstore.ErrInvalidCredentials) {
		t.Errorf("disabled user: err = %v", err)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	if _, err := store.Create(ctx, models.User{FullName: "A", Email: "dup@example.com"}, ""); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{FullName: "B", Email: "DUP@example.com"}, "")
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestFetcher(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{FullName: "Grace", Email: "grace@example.com"}, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	f := userstore.NewFetcher(db)
	su := f.FetchSessionUser(ctx, u.ID.Hex())
	if su == nil || su.Name != "Grace" || su.Email != "grace@example.com" {
		t.Fatalf("FetchSessionUser = %+v", su)
	}
	if f.FetchSessionUser(ctx, "not-an-id") != nil {
		t.Error("expected nil for invalid id")
	}

	if err := store.SetStatus(ctx, u.ID, "disabled"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if f.FetchSessionUser(ctx, u.ID.Hex()) != nil {
		t.Error("expected nil for disabled user")
	}
}

func TestHashPassword_TooShort(t *testing.T) {
	if _, err := userstore.HashPassword("short"); err == nil {
		t.Error("expected error for short password")
	}
}
