// internal/app/features/boards/reorder.go
package boards

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	columnstore "github.com/dalemusser/taskboard/internal/app/store/columns"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleReorder saves the result of a drag and drop. kind=columns posts
// the full column order as repeated ids; kind=tasks posts one task with
// its destination column and 1-based position.
func (h *Handler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	board, _, ok := h.boardPost(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var err error
	switch r.FormValue("kind") {
	case "columns":
		var ids []primitive.ObjectID
		ids, err = parseIDs(r.Form["ids"])
		if err != nil {
			h.ErrLog.LogBadRequest(w, r, "reorder columns: bad id", err, "Invalid column order.", "")
			return
		}
		err = h.Columns.Reorder(ctx, board.ID, ids)
	case "tasks":
		taskID, perr := primitive.ObjectIDFromHex(r.FormValue("task"))
		columnID, cerr := primitive.ObjectIDFromHex(r.FormValue("column"))
		position, nerr := strconv.Atoi(r.FormValue("position"))
		if err := errors.Join(perr, cerr, nerr); err != nil {
			h.ErrLog.LogBadRequest(w, r, "move task: bad form", err, "Invalid task move.", "")
			return
		}
		col, gerr := h.Columns.GetByID(ctx, board.ID, columnID)
		if gerr == nil && col.Archived {
			gerr = columnstore.ErrNotFound
		}
		if gerr != nil {
			err = gerr
			break
		}
		err = h.Tasks.Move(ctx, board.ID, taskID, columnID, position)
	default:
		h.ErrLog.LogBadRequest(w, r, "reorder: unknown kind", nil, "Invalid request.", "")
		return
	}

	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, columnstore.ErrNotFound), errors.Is(err, taskstore.ErrNotFound):
		h.ErrLog.LogNotFound(w, r, "reorder target missing", "That item no longer exists.", "")
	case errors.Is(err, columnstore.ErrBadOrder):
		h.ErrLog.LogBadRequest(w, r, "reorder columns", err, "The board changed. Reload to reorder.", "")
	default:
		h.ErrLog.LogServerError(w, r, "reorder", err, "The new order could not be saved.", "")
	}
}

func parseIDs(raw []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
