// internal/app/features/boards/columns.go
package boards

import (
	"context"
	"errors"
	"net/http"

	columnstore "github.com/dalemusser/taskboard/internal/app/store/columns"
	"github.com/dalemusser/taskboard/internal/app/system/realtime"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.uber.org/zap"
)

// boardPost resolves the board and the posting view for a form post from
// an open board page. view is nil when the view has been swept.
func (h *Handler) boardPost(w http.ResponseWriter, r *http.Request) (models.Board, *realtime.View, bool) {
	board, uid, ok := h.loadBoard(w, r)
	if !ok {
		return models.Board{}, nil, false
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form", err, "Invalid request.", "/boards/"+board.ID.Hex())
		return models.Board{}, nil, false
	}
	view, claims, err := h.viewFor(r, board, uid)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad view token", err, "This board view has expired. Reload the page.", "/boards/"+board.ID.Hex())
		return models.Board{}, nil, false
	}
	h.Views.Touch(claims.ViewID)
	return board, view, true
}

// HandleCreateColumn appends a column. The posting view shows it at once
// and scrolls it into view; other views pick it up from the store.
func (h *Handler) HandleCreateColumn(w http.ResponseWriter, r *http.Request) {
	board, view, ok := h.boardPost(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	col, err := h.Columns.Create(ctx, board.ID, r.FormValue("name"))
	switch {
	case errors.Is(err, columnstore.ErrEmptyName):
		h.ErrLog.LogBadRequest(w, r, "create column", err, "Column name is required.", "")
		return
	case errors.Is(err, columnstore.ErrDuplicateName):
		h.ErrLog.LogBadRequest(w, r, "create column", err, "A column with that name already exists.", "")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create column", err, "The column could not be created.", "")
		return
	}

	if view != nil {
		view.Reconciler.AddLocalColumn(col, true)
	}
	h.Log.Info("column created",
		zap.String("board", board.ID.Hex()), zap.String("column", col.ID.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
