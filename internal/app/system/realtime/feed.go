// Package realtime connects board views to live store snapshots and to the
// browser tabs that show them.
package realtime

import (
	"context"
	"sync"

	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/app/system/reconcile"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// feed merges the column and task subscriptions of one board into
// Snapshots. Nothing is emitted until both queries have reported once.
type feed struct {
	mu      sync.Mutex
	cols    []models.Column
	tasks   []models.Task
	hasCols bool
	hasTask bool
	emit    func(reconcile.Snapshot)
	log     *zap.Logger
}

// Watch subscribes to the columns and tasks of board and calls onSnapshot
// with each combined snapshot. Calls to onSnapshot never overlap.
func Watch(ctx context.Context, store docstore.Client, board primitive.ObjectID, onSnapshot func(reconcile.Snapshot), logger *zap.Logger) (docstore.Unsubscribe, error) {
	f := &feed{emit: onSnapshot, log: logger}

	unsubCols, err := store.Subscribe(ctx, docstore.Query{
		Collection: docstore.Columns, Field: "board_id", Value: board,
	}, f.onColumns)
	if err != nil {
		return nil, err
	}
	unsubTasks, err := store.Subscribe(ctx, docstore.Query{
		Collection: docstore.Tasks, Field: "board_id", Value: board,
	}, f.onTasks)
	if err != nil {
		unsubCols()
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubTasks()
			unsubCols()
		})
	}, nil
}

func (f *feed) onColumns(docs []bson.Raw) {
	var cols []models.Column
	if err := docstore.DecodeAll(docs, &cols); err != nil {
		f.log.Warn("realtime: decode columns", zap.Error(err))
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cols = cols
	f.hasCols = true
	f.emitLocked()
}

func (f *feed) onTasks(docs []bson.Raw) {
	var tasks []models.Task
	if err := docstore.DecodeAll(docs, &tasks); err != nil {
		f.log.Warn("realtime: decode tasks", zap.Error(err))
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = tasks
	f.hasTask = true
	f.emitLocked()
}

func (f *feed) emitLocked() {
	if !f.hasCols || !f.hasTask {
		return
	}
	f.emit(reconcile.Snapshot{
		Columns: append([]models.Column(nil), f.cols...),
		Tasks:   append([]models.Task(nil), f.tasks...),
	})
}
