// internal/app/features/boards/page.go
package boards

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type boardPageData struct {
	Title      string
	IsLoggedIn bool
	UserName   string

	BoardID     string
	WorkspaceID string
	ViewToken   string
	StreamURL   string
	BoardHTML   template.HTML
}

// ServePage mounts a new view of the board and renders its current tree.
// The view's event queue opens in the same step as the render, so the
// stream replays exactly the patches the rendered HTML does not contain.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	board, uid, ok := h.loadBoard(w, r)
	if !ok {
		return
	}

	viewID, token, html, err := h.openView(r.Context(), board, uid, tabKey(r, uid))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "open board view", err, "The board could not be loaded.", "/workspaces")
		return
	}

	h.Log.Debug("board page served",
		zap.String("board", board.ID.Hex()), zap.String("view", viewID))

	// boarddom escapes every text node and attribute it renders.
	data := boardPageData{
		Title:       board.Name,
		IsLoggedIn:  true,
		BoardID:     board.ID.Hex(),
		WorkspaceID: board.WorkspaceID.Hex(),
		ViewToken:   token,
		StreamURL:   "/boards/" + board.ID.Hex() + "/stream",
		BoardHTML:   template.HTML(html),
	}
	if u, ok := auth.CurrentUser(r); ok {
		data.UserName = u.Name
	}
	templates.Render(w, r, "board_page", data)
}

// openView mounts a fresh view of board for uid, renders its tree and
// opens its event queue in one step, and signs a token naming the view.
// A view the same tab showed before is released first.
func (h *Handler) openView(ctx context.Context, board models.Board, uid primitive.ObjectID, tab string) (viewID, token, html string, err error) {
	if prev, ok := h.Views.ReleaseTab(tab); ok {
		h.Broker.Close(prev)
	}

	viewID = uuid.NewString()
	view, err := h.Views.Mount(ctx, viewID, board, h.Broker.Sink(viewID))
	if err != nil {
		return "", "", "", fmt.Errorf("mount: %w", err)
	}
	if prev, ok := h.Views.Claim(tab, viewID); ok {
		h.Broker.Close(prev)
	}

	var buf bytes.Buffer
	if err := view.Reconciler.RenderAttached(&buf, func() { h.Broker.Open(viewID) }); err != nil {
		h.closeView(viewID)
		return "", "", "", fmt.Errorf("render: %w", err)
	}

	token, err = h.Tokens.Issue(auth.ViewClaims{ViewID: viewID, BoardID: board.ID.Hex(), UserID: uid.Hex()})
	if err != nil {
		h.closeView(viewID)
		return "", "", "", fmt.Errorf("issue token: %w", err)
	}
	return viewID, token, buf.String(), nil
}
