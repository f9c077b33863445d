// internal/app/features/workspaces/new.go
package workspaces

import (
	"context"
	"errors"
	"net/http"

	boardstore "github.com/dalemusser/taskboard/internal/app/store/boards"
	columnstore "github.com/dalemusser/taskboard/internal/app/store/columns"
	workspacestore "github.com/dalemusser/taskboard/internal/app/store/workspaces"
	"github.com/dalemusser/taskboard/internal/app/system/authz"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleCreate creates a workspace owned by the signed-in user.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.LogForbidden(w, r, "create workspace without user", "Sign in first.", "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/workspaces")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ws, err := workspacestore.New(h.DB).Create(ctx, r.FormValue("name"), uid)
	if errors.Is(err, workspacestore.ErrEmptyName) {
		h.ErrLog.LogBadRequest(w, r, "create workspace", err, "Workspace name is required.", "/workspaces")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error creating workspace", err, "A database error occurred.", "/workspaces")
		return
	}

	h.Log.Info("workspace created", zap.String("workspace", ws.ID.Hex()), zap.String("owner", uid.Hex()))
	redirect(w, r, "/workspaces")
}

// HandleCreateBoard creates a board with the default columns and links it
// to the workspace.
func (h *Handler) HandleCreateBoard(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.LogForbidden(w, r, "create board without user", "Sign in first.", "/login")
		return
	}
	wsID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad workspace id", err, "Workspace not found.", "/workspaces")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/workspaces")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	wss := workspacestore.New(h.DB)
	ws, err := wss.GetByID(ctx, wsID)
	if errors.Is(err, workspacestore.ErrNotFound) {
		h.ErrLog.LogNotFound(w, r, "workspace not found", "Workspace not found.", "/workspaces")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading workspace", err, "A database error occurred.", "/workspaces")
		return
	}
	if !authz.CanAccessWorkspace(ws, uid) {
		h.ErrLog.LogForbidden(w, r, "create board denied", "You are not a member of this workspace.", "/workspaces")
		return
	}

	b, err := boardstore.New(h.DB).Create(ctx, ws.ID, uid, r.FormValue("name"))
	if errors.Is(err, boardstore.ErrEmptyName) {
		h.ErrLog.LogBadRequest(w, r, "create board", err, "Board name is required.", "/workspaces")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error creating board", err, "A database error occurred.", "/workspaces")
		return
	}
	if _, err := columnstore.New(h.Docs).CreateDefaults(ctx, b.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "create default columns", err, "The board was created without columns.", "/boards/"+b.ID.Hex())
		return
	}
	if err := wss.AddBoard(ctx, ws.ID, b.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "link board to workspace", err, "A database error occurred.", "/workspaces")
		return
	}

	h.Log.Info("board created", zap.String("workspace", ws.ID.Hex()), zap.String("board", b.ID.Hex()))
	redirect(w, r, "/boards/"+b.ID.Hex())
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
