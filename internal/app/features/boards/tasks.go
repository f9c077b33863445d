// internal/app/features/boards/tasks.go
package boards

import (
	"context"
	"errors"
	"net/http"

	columnstore "github.com/dalemusser/taskboard/internal/app/store/columns"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleCreateTask adds a task to the end of a column. The posting view
// shows the card before the write lands; the card survives a snapshot
// that does not carry it yet for the optimistic window.
func (h *Handler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	board, view, ok := h.boardPost(w, r)
	if !ok {
		return
	}

	columnID, err := primitive.ObjectIDFromHex(r.FormValue("column"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "create task: bad column id", err, "Choose a column for the task.", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	col, err := h.Columns.GetByID(ctx, board.ID, columnID)
	if errors.Is(err, columnstore.ErrNotFound) || (err == nil && col.Archived) {
		h.ErrLog.LogBadRequest(w, r, "create task: column not on board", columnstore.ErrNotFound, "That column no longer exists.", "")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create task: load column", err, "The task could not be created.", "")
		return
	}

	t, err := h.Tasks.Build(ctx, board.ID, columnID, r.FormValue("title"), r.FormValue("description"))
	if errors.Is(err, taskstore.ErrEmptyTitle) {
		h.ErrLog.LogBadRequest(w, r, "create task", err, "Task title is required.", "")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create task", err, "The task could not be created.", "")
		return
	}

	if view != nil {
		view.Reconciler.AddLocalTask(t)
	}
	if err := h.Tasks.Insert(ctx, t); err != nil {
		if view != nil {
			view.Reconciler.DropLocalTask(t.ID)
		}
		h.ErrLog.LogServerError(w, r, "insert task", err, "The task could not be saved.", "")
		return
	}
	h.Log.Info("task created",
		zap.String("board", board.ID.Hex()), zap.String("task", t.ID.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
