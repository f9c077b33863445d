// internal/app/features/workspaces/list.go
package workspaces

import (
	"context"
	"net/http"

	boardstore "github.com/dalemusser/taskboard/internal/app/store/boards"
	workspacestore "github.com/dalemusser/taskboard/internal/app/store/workspaces"
	"github.com/dalemusser/taskboard/internal/app/system/authz"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type workspaceRow struct {
	ID        string
	Name      string
	CanManage bool
	Boards    []boardRow
}

type boardRow struct {
	ID   string
	Name string
}

type listData struct {
	Title      string
	IsLoggedIn bool
	UserName   string
	Workspaces []workspaceRow
}

// ServeList renders the workspaces the user belongs to with their boards.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	name, uid, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.LogForbidden(w, r, "workspace list without user", "Sign in to see your workspaces.", "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := workspacestore.New(h.DB).ListForUser(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing workspaces", err, "A database error occurred.", "/")
		return
	}

	boards := boardstore.New(h.DB)
	rows := make([]workspaceRow, 0, len(list))
	for _, ws := range list {
		bs, err := boards.ListByWorkspace(ctx, ws.ID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error listing boards", err, "A database error occurred.", "/")
			return
		}
		rows = append(rows, workspaceRow{
			ID:        ws.ID.Hex(),
			Name:      ws.Name,
			CanManage: authz.CanManageWorkspace(ws, uid),
			Boards:    toBoardRows(bs),
		})
	}

	templates.Render(w, r, "workspaces_list", listData{
		Title:      "Workspaces",
		IsLoggedIn: true,
		UserName:   name,
		Workspaces: rows,
	})
}

func toBoardRows(bs []models.Board) []boardRow {
	rows := make([]boardRow, len(bs))
	for i, b := range bs {
		rows[i] = boardRow{ID: b.ID.Hex(), Name: b.Name}
	}
	return rows
}
