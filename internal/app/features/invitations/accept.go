// internal/app/features/invitations/accept.go
package invitations

import (
	"context"
	"errors"
	"net/http"

	invitationstore "github.com/dalemusser/taskboard/internal/app/store/invitations"
	workspacestore "github.com/dalemusser/taskboard/internal/app/store/workspaces"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/authz"
	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleAccept adds the signed-in user to the invitation's workspace. The
// user's email must match the address the invitation was sent to.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.LogForbidden(w, r, "accept invitation without user", "Sign in to accept the invitation.", "/login")
		return
	}
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := invitationstore.New(h.DB)
	inv, err := store.GetByToken(ctx, chi.URLParam(r, "token"))
	if errors.Is(err, invitationstore.ErrNotFound) {
		h.ErrLog.LogNotFound(w, r, "invitation not found", "This invitation link is not valid.", "/workspaces")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load invitation", err, "A database error occurred.", "/workspaces")
		return
	}
	if inv.Status != models.InvitationPending {
		h.ErrLog.LogBadRequest(w, r, "invitation not pending", invitationstore.ErrNotPending, "This invitation has already been used.", "/workspaces")
		return
	}
	if normalize.Email(user.Email) != inv.Email {
		h.ErrLog.LogForbidden(w, r, "invitation email mismatch", "This invitation was sent to a different email address.", "/workspaces")
		return
	}

	err = workspacestore.New(h.DB).AddMember(ctx, inv.WorkspaceID, uid, authz.RoleMember)
	if err != nil && !errors.Is(err, workspacestore.ErrAlreadyMember) {
		h.ErrLog.LogServerError(w, r, "add workspace member", err, "A database error occurred.", "/workspaces")
		return
	}
	if err := store.MarkAccepted(ctx, inv.ID, uid); err != nil && !errors.Is(err, invitationstore.ErrNotPending) {
		h.ErrLog.LogServerError(w, r, "mark invitation accepted", err, "A database error occurred.", "/workspaces")
		return
	}

	h.Log.Info("invitation accepted",
		zap.String("invitation", inv.ID.Hex()),
		zap.String("workspace", inv.WorkspaceID.Hex()),
		zap.String("user", uid.Hex()))
	http.Redirect(w, r, "/workspaces", http.StatusSeeOther)
}
