package boardstate

import (
	"testing"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCache_CurrentTasksIsACopy(t *testing.T) {
	c := New()
	c.UpdateTasks([]models.Task{{ID: primitive.NewObjectID(), Title: "original"}})

	got := c.CurrentTasks()
	got[0].Title = "mutated"
	got = append(got, models.Task{Title: "extra"})

	again := c.CurrentTasks()
	if len(again) != 1 {
		t.Fatalf("cache length changed to %d", len(again))
	}
	if again[0].Title != "original" {
		t.Errorf("cache entry mutated through copy: %q", again[0].Title)
	}
}

func TestCache_UpdateColumnsCopiesInput(t *testing.T) {
	c := New()
	cols := []models.Column{{ID: primitive.NewObjectID(), Name: "To Do", Order: 1}}
	c.UpdateColumns(cols)
	cols[0].Name = "changed by caller"

	if got := c.CurrentColumns()[0].Name; got != "To Do" {
		t.Errorf("cache aliased caller slice, name = %q", got)
	}
}

func TestCache_EmptyCopiesAreNonNil(t *testing.T) {
	c := New()
	if c.CurrentTasks() == nil || c.CurrentColumns() == nil {
		t.Error("empty cache should return empty, non-nil slices")
	}
}

func TestCache_Flags(t *testing.T) {
	c := New()
	if c.IsInitialized() || c.IsApplyingRemote() {
		t.Fatal("new cache must start uninitialized and idle")
	}
	c.MarkInitialized()
	c.SetApplyingRemote(true)
	c.SetScroll(420)
	if !c.IsInitialized() || !c.IsApplyingRemote() || c.Scroll() != 420 {
		t.Errorf("flags not recorded: init=%v applying=%v scroll=%d",
			c.IsInitialized(), c.IsApplyingRemote(), c.Scroll())
	}
}
