package taskstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	s     *Store
	board primitive.ObjectID
	todo  primitive.ObjectID
	done  primitive.ObjectID
}

func newFixture() fixture {
	s := New(docstore.NewMemory())
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return fixture{s: s, board: primitive.NewObjectID(), todo: primitive.NewObjectID(), done: primitive.NewObjectID()}
}

func (f fixture) titles(t *testing.T, column primitive.ObjectID) []string {
	t.Helper()
	tasks, err := f.s.visibleIn(context.Background(), f.board, column)
	if err != nil {
		t.Fatalf("visibleIn: %v", err)
	}
	out := make([]string, len(tasks))
	for i, task := range tasks {
		if task.Order != i+1 {
			t.Errorf("task %q has order %d at position %d", task.Title, task.Order, i+1)
		}
		out[i] = task.Title
	}
	return out
}

func same(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	a, err := f.s.Create(ctx, f.board, f.todo, "Write tests", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Order != 1 || a.CreatedAt == nil || !a.CreatedAt.Equal(f.s.now()) {
		t.Errorf("Create() = %+v", a)
	}
	if _, err := f.s.Create(ctx, f.board, f.todo, "Ship", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.s.Create(ctx, f.board, f.todo, " \t", ""); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("blank title: err = %v, want ErrEmptyTitle", err)
	}
	if got, want := f.titles(t, f.todo), []string{"Write tests", "Ship"}; !same(got, want) {
		t.Errorf("titles = %v, want %v", got, want)
	}
}

func TestEditArchiveDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a, _ := f.s.Create(ctx, f.board, f.todo, "A", "")
	b, _ := f.s.Create(ctx, f.board, f.todo, "B", "")
	_, _ = f.s.Create(ctx, f.board, f.todo, "C", "")

	if err := f.s.Edit(ctx, f.board, b.ID, "B2", "<p>notes</p>"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	got, err := f.s.GetByID(ctx, f.board, b.ID)
	if err != nil || got.Title != "B2" || got.Description != "<p>notes</p>" {
		t.Errorf("after edit = %+v, %v", got, err)
	}
	if err := f.s.Edit(ctx, primitive.NewObjectID(), b.ID, "x", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("edit on other board: err = %v, want ErrNotFound", err)
	}

	if err := f.s.Archive(ctx, f.board, a.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if got, want := f.titles(t, f.todo), []string{"B2", "C"}; !same(got, want) {
		t.Errorf("after archive = %v, want %v", got, want)
	}

	if err := f.s.Delete(ctx, f.board, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, want := f.titles(t, f.todo), []string{"C"}; !same(got, want) {
		t.Errorf("after delete = %v, want %v", got, want)
	}
	if _, err := f.s.GetByID(ctx, f.board, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted task: err = %v, want ErrNotFound", err)
	}
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a, _ := f.s.Create(ctx, f.board, f.todo, "A", "")
	b, _ := f.s.Create(ctx, f.board, f.todo, "B", "")
	_, _ = f.s.Create(ctx, f.board, f.done, "X", "")

	// Within a column.
	if err := f.s.Move(ctx, f.board, b.ID, f.todo, 1); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got, want := f.titles(t, f.todo), []string{"B", "A"}; !same(got, want) {
		t.Errorf("after reorder = %v, want %v", got, want)
	}

	// Across columns, position past the end is clamped.
	if err := f.s.Move(ctx, f.board, a.ID, f.done, 99); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got, want := f.titles(t, f.todo), []string{"B"}; !same(got, want) {
		t.Errorf("source = %v, want %v", got, want)
	}
	if got, want := f.titles(t, f.done), []string{"X", "A"}; !same(got, want) {
		t.Errorf("destination = %v, want %v", got, want)
	}
}
