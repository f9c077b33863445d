// internal/app/features/reports/handler.go
package reports

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	boardstore "github.com/dalemusser/taskboard/internal/app/store/boards"
	workspacestore "github.com/dalemusser/taskboard/internal/app/store/workspaces"
	"github.com/dalemusser/taskboard/internal/app/system/authz"
	"github.com/dalemusser/taskboard/internal/app/system/boardreport"
	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/app/system/httpjson"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// WorkspaceGetter loads workspaces by id.
type WorkspaceGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error)
}

// Handler serves board reports.
type Handler struct {
	Workspaces WorkspaceGetter
	Builder    *boardreport.Builder
	Log        *zap.Logger
}

// NewHandler wires reports to db for workspaces and boards and to dc for
// columns and tasks.
func NewHandler(db *mongo.Database, dc docstore.Client, logger *zap.Logger) *Handler {
	return &Handler{
		Workspaces: workspacestore.New(db),
		Builder:    boardreport.NewBuilder(boardstore.New(db), dc),
		Log:        logger,
	}
}

type reportRequest struct {
	WorkspaceID     string `json:"workspaceId"`
	BoardID         string `json:"boardId"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	IncludeArchived bool   `json:"includeArchived"`
	Format          string `json:"format"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = httpjson.Write(w, status, errorResponse{Error: msg})
}

// HandleReport builds a report and returns it as JSON or streams it as a
// CSV download.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req reportRequest
	if err := httpjson.Decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	format, err := boardreport.NormalizeFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := boardreport.ParseDates(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	wsID, err := primitive.ObjectIDFromHex(req.WorkspaceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}
	var boardID primitive.ObjectID
	if req.BoardID != "" {
		if boardID, err = primitive.ObjectIDFromHex(req.BoardID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid boardId")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	ws, err := h.Workspaces.GetByID(ctx, wsID)
	if errors.Is(err, workspacestore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "workspace not found")
		return
	}
	if err != nil {
		h.Log.Error("load workspace for report", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "a database error occurred")
		return
	}
	if !authz.CanAccessWorkspace(ws, uid) {
		writeError(w, http.StatusForbidden, "you are not a member of this workspace")
		return
	}

	rep, err := h.Builder.Build(ctx, boardreport.Query{
		Workspace:       ws,
		BoardID:         boardID,
		Start:           start,
		End:             end,
		IncludeArchived: req.IncludeArchived,
	})
	switch {
	case errors.Is(err, boardreport.ErrBoardNotInScope), errors.Is(err, boardstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "board not found in workspace")
		return
	case err != nil:
		h.Log.Error("build report", zap.String("workspace", ws.ID.Hex()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "the report could not be built")
		return
	}

	h.Log.Info("report built",
		zap.String("workspace", ws.ID.Hex()),
		zap.String("format", format),
		zap.Int("tasks", len(rep.Tasks)))

	if format == boardreport.FormatJSON {
		_ = httpjson.Write(w, http.StatusOK, rep)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, boardreport.Filename(format, time.Now())))
	if err := boardreport.WriteCSV(w, rep); err != nil {
		h.Log.Warn("write csv report", zap.Error(err))
	}
}
