package docstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func insertColumn(t *testing.T, store *docstore.Memory, boardID primitive.ObjectID, name string, order int) models.Column {
	t.Helper()
	col := models.Column{ID: primitive.NewObjectID(), Name: name, BoardID: boardID, Order: order}
	err := store.BatchWrite(context.Background(), []docstore.WriteOp{{
		Collection: docstore.Columns, ID: col.ID, Kind: docstore.OpInsert, Doc: col,
	}})
	if err != nil {
		t.Fatalf("insert column: %v", err)
	}
	return col
}

func TestMemory_QueryByFieldSortsByOrder(t *testing.T) {
	store := docstore.NewMemory()
	boardID := primitive.NewObjectID()
	other := primitive.NewObjectID()

	insertColumn(t, store, boardID, "Done", 3)
	insertColumn(t, store, boardID, "To Do", 1)
	insertColumn(t, store, other, "Elsewhere", 1)
	insertColumn(t, store, boardID, "Doing", 2)

	var cols []models.Column
	if err := store.QueryByField(context.Background(), docstore.Columns, "board_id", boardID, &cols); err != nil {
		t.Fatalf("QueryByField failed: %v", err)
	}

	want := []string{"To Do", "Doing", "Done"}
	if len(cols) != len(want) {
		t.Fatalf("got %d columns, want %d", len(cols), len(want))
	}
	for i, name := range want {
		if cols[i].Name != name {
			t.Errorf("cols[%d].Name = %q, want %q", i, cols[i].Name, name)
		}
	}
}

func TestMemory_UpdateAndDelete(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()
	boardID := primitive.NewObjectID()
	col := insertColumn(t, store, boardID, "To Do", 1)

	err := store.BatchWrite(ctx, []docstore.WriteOp{{
		Collection: docstore.Columns, ID: col.ID, Kind: docstore.OpUpdate, Fields: bson.M{"name": "Backlog"},
	}})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	var cols []models.Column
	if err := store.QueryByField(ctx, docstore.Columns, "_id", col.ID, &cols); err != nil {
		t.Fatalf("QueryByField failed: %v", err)
	}
	if len(cols) != 1 || cols[0].Name != "Backlog" {
		t.Fatalf("expected renamed column, got %+v", cols)
	}
	if cols[0].Order != 1 {
		t.Errorf("update must keep other fields, order = %d", cols[0].Order)
	}

	err = store.BatchWrite(ctx, []docstore.WriteOp{{Collection: docstore.Columns, ID: col.ID, Kind: docstore.OpDelete}})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.QueryByField(ctx, docstore.Columns, "board_id", boardID, &cols); err != nil {
		t.Fatalf("QueryByField failed: %v", err)
	}
	if len(cols) != 0 {
		t.Errorf("expected no columns after delete, got %d", len(cols))
	}
}

func TestMemory_BatchWriteIsAllOrNothing(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()
	boardID := primitive.NewObjectID()
	col := insertColumn(t, store, boardID, "To Do", 1)

	err := store.BatchWrite(ctx, []docstore.WriteOp{
		{Collection: docstore.Columns, ID: col.ID, Kind: docstore.OpUpdate, Fields: bson.M{"order": 5}},
		{Collection: docstore.Columns, ID: primitive.NewObjectID(), Kind: docstore.OpUpdate, Fields: bson.M{"order": 1}},
	})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var cols []models.Column
	if err := store.QueryByField(ctx, docstore.Columns, "board_id", boardID, &cols); err != nil {
		t.Fatalf("QueryByField failed: %v", err)
	}
	if cols[0].Order != 1 {
		t.Errorf("failed batch must not apply earlier ops, order = %d", cols[0].Order)
	}
}

func TestMemory_InsertDuplicate(t *testing.T) {
	store := docstore.NewMemory()
	col := insertColumn(t, store, primitive.NewObjectID(), "To Do", 1)

	err := store.BatchWrite(context.Background(), []docstore.WriteOp{{
		Collection: docstore.Columns, ID: col.ID, Kind: docstore.OpInsert, Doc: col,
	}})
	if !errors.Is(err, docstore.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestMemory_SubscribeDeliversSnapshots(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()
	boardID := primitive.NewObjectID()
	insertColumn(t, store, boardID, "To Do", 1)

	var snapshots [][]models.Column
	unsub, err := store.Subscribe(ctx, docstore.Query{Collection: docstore.Columns, Field: "board_id", Value: boardID},
		func(docs []bson.Raw) {
			var cols []models.Column
			if err := docstore.DecodeAll(docs, &cols); err != nil {
				t.Errorf("decode: %v", err)
			}
			snapshots = append(snapshots, cols)
		})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if len(snapshots) != 1 || len(snapshots[0]) != 1 {
		t.Fatalf("expected initial snapshot with one column, got %v", snapshots)
	}

	insertColumn(t, store, boardID, "Doing", 2)
	insertColumn(t, store, primitive.NewObjectID(), "Other board", 1)

	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots (other board ignored), got %d", len(snapshots))
	}
	if len(snapshots[1]) != 2 {
		t.Errorf("second snapshot: got %d columns, want 2", len(snapshots[1]))
	}

	unsub()
	unsub()
	if n := store.ActiveSubscriptions(); n != 0 {
		t.Errorf("ActiveSubscriptions = %d, want 0", n)
	}

	insertColumn(t, store, boardID, "Done", 3)
	if len(snapshots) != 2 {
		t.Errorf("no snapshots expected after unsubscribe, got %d", len(snapshots))
	}
}
