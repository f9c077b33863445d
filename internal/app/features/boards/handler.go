// internal/app/features/boards/handler.go
package boards

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/taskboard/internal/app/features/errors"
	boardstore "github.com/dalemusser/taskboard/internal/app/store/boards"
	columnstore "github.com/dalemusser/taskboard/internal/app/store/columns"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	workspacestore "github.com/dalemusser/taskboard/internal/app/store/workspaces"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/authz"
	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/app/system/realtime"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultHeartbeat is how often an idle stream sends a keep-alive comment.
const DefaultHeartbeat = 15 * time.Second

// BoardGetter loads boards by id.
type BoardGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Board, error)
}

// WorkspaceGetter loads workspaces by id.
type WorkspaceGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error)
}

// Handler serves the board page, its event stream, and the posts the
// page makes while open.
type Handler struct {
	Boards     BoardGetter
	Workspaces WorkspaceGetter
	Columns    *columnstore.Store
	Tasks      *taskstore.Store
	Views      *realtime.Manager
	Broker     *realtime.Broker
	Tokens     *auth.ViewTokens
	Heartbeat  time.Duration
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

// NewHandler wires a Handler to db for boards and workspaces and to dc for
// columns and tasks.
func NewHandler(db *mongo.Database, dc docstore.Client, views *realtime.Manager, broker *realtime.Broker, tokens *auth.ViewTokens, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Boards:     boardstore.New(db),
		Workspaces: workspacestore.New(db),
		Columns:    columnstore.New(dc),
		Tasks:      taskstore.New(dc),
		Views:      views,
		Broker:     broker,
		Tokens:     tokens,
		Heartbeat:  DefaultHeartbeat,
		Log:        logger,
		ErrLog:     errLog,
	}
}

// loadBoard resolves the {id} URL param to a board the signed-in user
// may see. On failure the response has been written.
func (h *Handler) loadBoard(w http.ResponseWriter, r *http.Request) (models.Board, primitive.ObjectID, bool) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return models.Board{}, primitive.NilObjectID, false
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad board id", err, "Board not found.", "/workspaces")
		return models.Board{}, primitive.NilObjectID, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.Boards.GetByID(ctx, id)
	if errors.Is(err, boardstore.ErrNotFound) {
		h.ErrLog.LogNotFound(w, r, "board not found", "Board not found.", "/workspaces")
		return models.Board{}, primitive.NilObjectID, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load board", err, "A database error occurred.", "/workspaces")
		return models.Board{}, primitive.NilObjectID, false
	}

	var ws *models.Workspace
	if got, err := h.Workspaces.GetByID(ctx, b.WorkspaceID); err == nil {
		ws = &got
	} else if !errors.Is(err, workspacestore.ErrNotFound) {
		h.ErrLog.LogServerError(w, r, "load workspace", err, "A database error occurred.", "/workspaces")
		return models.Board{}, primitive.NilObjectID, false
	}

	if !authz.CanAccessBoard(b, ws, uid) {
		h.ErrLog.LogForbidden(w, r, "board access denied", "You do not have access to this board.", "/workspaces")
		return models.Board{}, primitive.NilObjectID, false
	}
	return b, uid, true
}

// viewFor checks the posted view token against board and user. The
// returned view is nil when the token is valid but the view has already
// been swept; writes still go through and reach the store.
func (h *Handler) viewFor(r *http.Request, board models.Board, uid primitive.ObjectID) (*realtime.View, auth.ViewClaims, error) {
	claims, err := h.Tokens.Parse(r.FormValue("view"))
	if err != nil {
		return nil, auth.ViewClaims{}, err
	}
	if claims.BoardID != board.ID.Hex() || claims.UserID != uid.Hex() {
		return nil, auth.ViewClaims{}, auth.ErrBadViewToken
	}
	v, ok := h.Views.View(claims.ViewID)
	if !ok || v.BoardID != board.ID {
		return nil, claims, nil
	}
	return v, claims, nil
}

// tabKey names the browser tab a request comes from, scoped to the user.
// Pages send the tab id they keep in sessionStorage as ?tab=; anything
// that is not a UUID is ignored.
func tabKey(r *http.Request, uid primitive.ObjectID) string {
	tab := query.Get(r, "tab")
	if tab == "" {
		return ""
	}
	id, err := uuid.Parse(tab)
	if err != nil {
		return ""
	}
	return uid.Hex() + "/" + id.String()
}

// closeView releases a view's subscription and its event queue.
func (h *Handler) closeView(viewID string) {
	h.Views.Unmount(viewID)
	h.Broker.Close(viewID)
}
