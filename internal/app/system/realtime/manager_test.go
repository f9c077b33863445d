package realtime

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/boarddom"
	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/app/system/reconcile"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func seedBoard(t *testing.T, store *docstore.Memory, names ...string) (models.Board, []models.Column) {
	t.Helper()
	board := models.Board{ID: primitive.NewObjectID(), Name: "Sprint"}
	var ops []docstore.WriteOp
	var cols []models.Column
	for i, name := range names {
		c := models.Column{ID: primitive.NewObjectID(), Name: name, BoardID: board.ID, Order: i + 1}
		cols = append(cols, c)
		ops = append(ops, docstore.WriteOp{Collection: docstore.Columns, ID: c.ID, Kind: docstore.OpInsert, Doc: c})
	}
	if len(ops) > 0 {
		if err := store.BatchWrite(context.Background(), ops); err != nil {
			t.Fatalf("seed columns: %v", err)
		}
	}
	return board, cols
}

func newTestManager(store docstore.Client) *Manager {
	return NewManager(store, Config{Cooldown: -1, ClientWidth: 800}, zap.NewNop())
}

func TestManager_MountTwiceKeepsOneSubscription(t *testing.T) {
	store := docstore.NewMemory()
	board, _ := seedBoard(t, store, "To Do")
	m := newTestManager(store)
	ctx := context.Background()

	first, err := m.Mount(ctx, "view-1", board, nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	// one feed is a column query plus a task query
	if got := store.ActiveSubscriptions(); got != 2 {
		t.Fatalf("active subscriptions after first mount = %d, want 2", got)
	}

	second, err := m.Mount(ctx, "view-1", board, nil)
	if err != nil {
		t.Fatalf("second Mount failed: %v", err)
	}
	if second != first {
		t.Error("remount of the same board should reuse the view")
	}
	if got := store.ActiveSubscriptions(); got != 2 {
		t.Errorf("active subscriptions after remount = %d, want 2", got)
	}

	other, _ := seedBoard(t, store, "Backlog")
	if _, err := m.Mount(ctx, "view-1", other, nil); err != nil {
		t.Fatalf("Mount of other board failed: %v", err)
	}
	if got := store.ActiveSubscriptions(); got != 2 {
		t.Errorf("active subscriptions after switching boards = %d, want 2", got)
	}
	if m.Len() != 1 {
		t.Errorf("mounted views = %d, want 1", m.Len())
	}

	m.Unmount("view-1")
	m.Unmount("view-1")
	if got := store.ActiveSubscriptions(); got != 0 {
		t.Errorf("active subscriptions after unmount = %d, want 0", got)
	}
}

func TestManager_MountRendersInitialSnapshot(t *testing.T) {
	store := docstore.NewMemory()
	board, cols := seedBoard(t, store, "To Do", "Done")
	m := newTestManager(store)

	v, err := m.Mount(context.Background(), "view-1", board, nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	var out strings.Builder
	if err := v.Reconciler.Render(&out); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for _, c := range cols {
		if !strings.Contains(out.String(), boarddom.ColumnElementID(c.ID)) {
			t.Errorf("column %q missing from initial render", c.Name)
		}
	}
}

func TestManager_TaskWriteProducesTaskPatch(t *testing.T) {
	store := docstore.NewMemory()
	board, cols := seedBoard(t, store, "To Do")
	m := newTestManager(store)

	var patches []boarddom.Patch
	v, err := m.Mount(context.Background(), "view-1", board, func(p boarddom.Patch) {
		patches = append(patches, p)
	})
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if v.Reconciler.State() != reconcile.Steady {
		t.Fatalf("view state = %v, want steady", v.Reconciler.State())
	}
	patches = nil

	now := time.Now()
	task := models.Task{ID: primitive.NewObjectID(), Title: "Write tests", ColumnID: cols[0].ID, BoardID: board.ID, Order: 1, CreatedAt: &now}
	err = store.BatchWrite(context.Background(), []docstore.WriteOp{{
		Collection: docstore.Tasks, ID: task.ID, Kind: docstore.OpInsert, Doc: task,
	}})
	if err != nil {
		t.Fatalf("insert task: %v", err)
	}

	if len(patches) == 0 {
		t.Fatal("no patches after task insert")
	}
	for _, p := range patches {
		if p.Op == boarddom.OpInner && p.Target == "#columns" {
			t.Error("task insert caused a full strip render")
		}
	}
	if patches[0].Target != "#"+boarddom.TaskListID(cols[0].ID) || !strings.Contains(patches[0].HTML, "Write tests") {
		t.Errorf("unexpected first patch %+v", patches[0])
	}
}

func TestManager_Sweep(t *testing.T) {
	store := docstore.NewMemory()
	board, _ := seedBoard(t, store, "To Do")
	m := newTestManager(store)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	if _, err := m.Mount(context.Background(), "old", board, nil); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	clock = clock.Add(10 * time.Minute)
	if _, err := m.Mount(context.Background(), "fresh", board, nil); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	swept := m.Sweep(5 * time.Minute)
	if len(swept) != 1 || swept[0] != "old" {
		t.Errorf("swept = %v, want [old]", swept)
	}
	if _, ok := m.View("fresh"); !ok {
		t.Error("fresh view was swept")
	}
	if got := store.ActiveSubscriptions(); got != 2 {
		t.Errorf("active subscriptions = %d, want 2", got)
	}

	m.Close()
	if got := store.ActiveSubscriptions(); got != 0 {
		t.Errorf("active subscriptions after Close = %d, want 0", got)
	}
}

func TestManager_TabKeepsOneView(t *testing.T) {
	store := docstore.NewMemory()
	board, _ := seedBoard(t, store, "To Do")
	m := newTestManager(store)
	ctx := context.Background()

	if _, err := m.Mount(ctx, "view-1", board, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if prev, ok := m.Claim("tab-a", "view-1"); ok {
		t.Fatalf("first claim released %q", prev)
	}

	// a reload of the same tab
	if _, err := m.Mount(ctx, "view-2", board, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	prev, ok := m.Claim("tab-a", "view-2")
	if !ok || prev != "view-1" {
		t.Fatalf("Claim = %q, %v; want view-1 released", prev, ok)
	}
	if _, ok := m.View("view-1"); ok {
		t.Error("replaced view still mounted")
	}
	if got := store.ActiveSubscriptions(); got != 2 {
		t.Errorf("active subscriptions = %d, want 2", got)
	}

	if id, ok := m.ReleaseTab("tab-a"); !ok || id != "view-2" {
		t.Errorf("ReleaseTab = %q, %v; want view-2", id, ok)
	}
	if got := store.ActiveSubscriptions(); got != 0 {
		t.Errorf("active subscriptions after release = %d, want 0", got)
	}
	if _, ok := m.ReleaseTab("tab-a"); ok {
		t.Error("released tab should be empty")
	}
}

func TestManager_ClaimMovesViewBetweenTabs(t *testing.T) {
	store := docstore.NewMemory()
	board, _ := seedBoard(t, store, "To Do")
	m := newTestManager(store)

	if _, err := m.Mount(context.Background(), "view-1", board, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	m.Claim("tab-a", "view-1")
	m.Claim("tab-b", "view-1")

	if _, ok := m.ReleaseTab("tab-a"); ok {
		t.Error("old tab key should no longer name the view")
	}
	if _, ok := m.View("view-1"); !ok {
		t.Fatal("view should still be mounted under its new tab")
	}
	if _, ok := m.Claim("", "view-1"); ok {
		t.Error("empty tab claims nothing")
	}
	if _, ok := m.Claim("tab-c", "missing"); ok {
		t.Error("unknown view claims nothing")
	}

	m.Unmount("view-1")
	if _, ok := m.ReleaseTab("tab-b"); ok {
		t.Error("unmount should drop the tab key")
	}
}
