// internal/app/features/boards/actions.go
package boards

import (
	"context"
	"errors"
	"net/http"

	columnstore "github.com/dalemusser/taskboard/internal/app/store/columns"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	"github.com/dalemusser/taskboard/internal/app/system/boardactions"
	"github.com/dalemusser/taskboard/internal/app/system/httpjson"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// boardActions runs board actions against the stores, scoped to one board.
type boardActions struct {
	h       *Handler
	boardID primitive.ObjectID
}

func (a boardActions) EditTask(ctx context.Context, id primitive.ObjectID, title string) error {
	t, err := a.h.Tasks.GetByID(ctx, a.boardID, id)
	if err != nil {
		return err
	}
	return a.h.Tasks.Edit(ctx, a.boardID, id, title, t.Description)
}

func (a boardActions) ArchiveTask(ctx context.Context, id primitive.ObjectID) error {
	return a.h.Tasks.Archive(ctx, a.boardID, id)
}

func (a boardActions) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	return a.h.Tasks.Delete(ctx, a.boardID, id)
}

func (a boardActions) RenameColumn(ctx context.Context, id primitive.ObjectID, name string) error {
	return a.h.Columns.Rename(ctx, a.boardID, id, name)
}

func (a boardActions) ArchiveColumn(ctx context.Context, id primitive.ObjectID) error {
	return a.h.Columns.Archive(ctx, a.boardID, id)
}

type actionResponse struct {
	MenuOpen   bool   `json:"menuOpen"`
	MenuTarget string `json:"menuTarget,omitempty"`
}

// HandleAction dispatches one delegated click from the board page and
// answers with the column menu state.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	board, view, ok := h.boardPost(w, r)
	if !ok {
		return
	}

	a, err := boardactions.Parse(r.FormValue("action"), r.FormValue("target"), r.FormValue("value"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse board action", err, actionMessage(err), "")
		return
	}

	menu := &boardactions.Menu{}
	if view != nil {
		menu = view.Menu
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := boardactions.Dispatch(ctx, a, boardActions{h: h, boardID: board.ID}, menu)
	if err != nil {
		switch {
		case errors.Is(err, taskstore.ErrNotFound), errors.Is(err, columnstore.ErrNotFound):
			h.ErrLog.LogNotFound(w, r, "board action target missing", "That item no longer exists.", "")
		case isInputError(err):
			h.ErrLog.LogBadRequest(w, r, "board action rejected", err, actionMessage(err), "")
		default:
			h.ErrLog.LogServerError(w, r, "board action", err, "The change could not be saved.", "")
		}
		return
	}

	h.Log.Debug("board action",
		zap.String("board", board.ID.Hex()),
		zap.String("action", string(a.Kind)),
		zap.String("target", a.TargetID.Hex()))

	resp := actionResponse{MenuOpen: res.MenuOpen}
	if res.MenuOpen {
		resp.MenuTarget = res.MenuTarget.Hex()
	}
	httpjson.Write(w, http.StatusOK, resp)
}

func isInputError(err error) bool {
	return errors.Is(err, taskstore.ErrEmptyTitle) ||
		errors.Is(err, columnstore.ErrEmptyName) ||
		errors.Is(err, columnstore.ErrDuplicateName)
}

func actionMessage(err error) string {
	switch {
	case errors.Is(err, boardactions.ErrUnknownAction):
		return "Unknown action."
	case errors.Is(err, boardactions.ErrBadTarget):
		return "That item no longer exists."
	case errors.Is(err, boardactions.ErrEmptyValue), errors.Is(err, taskstore.ErrEmptyTitle), errors.Is(err, columnstore.ErrEmptyName):
		return "A name is required."
	case errors.Is(err, columnstore.ErrDuplicateName):
		return "A column with that name already exists."
	}
	return "Invalid request."
}
