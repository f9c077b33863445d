// internal/app/features/invitations/send.go
package invitations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/taskboard/internal/app/resources"
	invitationstore "github.com/dalemusser/taskboard/internal/app/store/invitations"
	workspacestore "github.com/dalemusser/taskboard/internal/app/store/workspaces"
	"github.com/dalemusser/taskboard/internal/app/system/authz"
	"github.com/dalemusser/taskboard/internal/app/system/httpjson"
	"github.com/dalemusser/taskboard/internal/app/system/mailer"
	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// sendRequest is the body of POST /api/send-invitation. WorkspaceName and
// InviterName fall back to the stored workspace and the signed-in user.
// InvitationLink is ignored: the link carries a token only the server
// can mint.
type sendRequest struct {
	To             string `json:"to"`
	Email          string `json:"email"`
	WorkspaceID    string `json:"workspaceId"`
	WorkspaceName  string `json:"workspaceName"`
	InviterName    string `json:"inviterName"`
	Message        string `json:"message"`
	InvitationLink string `json:"invitationLink"`
}

type sendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

func fail(w http.ResponseWriter, status int, msg string) {
	_ = httpjson.Write(w, status, sendResponse{Success: false, Error: msg})
}

// HandleSend records a pending invitation and emails its accept link.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	name, uid, ok := authz.UserCtx(r)
	if !ok {
		fail(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req sendRequest
	if err := httpjson.Decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	to := req.To
	if to == "" {
		to = req.Email
	}
	to = normalize.Email(to)
	if to == "" || !strings.Contains(to, "@") {
		fail(w, http.StatusBadRequest, "a valid recipient email is required")
		return
	}
	wsID, err := primitive.ObjectIDFromHex(req.WorkspaceID)
	if err != nil {
		fail(w, http.StatusBadRequest, "workspaceId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, err := workspacestore.New(h.DB).GetByID(ctx, wsID)
	if errors.Is(err, workspacestore.ErrNotFound) {
		fail(w, http.StatusNotFound, "workspace not found")
		return
	}
	if err != nil {
		h.Log.Error("load workspace for invitation", zap.Error(err))
		fail(w, http.StatusInternalServerError, "a database error occurred")
		return
	}
	if !authz.CanManageWorkspace(ws, uid) {
		fail(w, http.StatusForbidden, "only workspace owners can invite")
		return
	}
	if h.SendLimit != nil && !h.SendLimit.Allow(uid.Hex()) {
		h.Log.Warn("invitation sends throttled", zap.String("user", uid.Hex()))
		fail(w, http.StatusTooManyRequests, "too many invitations sent; try again later")
		return
	}

	store := invitationstore.New(h.DB)
	inv, err := store.Create(ctx, models.Invitation{
		WorkspaceID: ws.ID,
		Email:       to,
		InviterID:   uid,
		Message:     strings.TrimSpace(req.Message),
	})
	if err != nil {
		h.Log.Error("create invitation", zap.Error(err))
		fail(w, http.StatusInternalServerError, "a database error occurred")
		return
	}

	data := mailer.InvitationEmailData{
		SiteName:       resources.SiteName,
		WorkspaceName:  firstNonEmpty(req.WorkspaceName, ws.Name),
		InviterName:    firstNonEmpty(req.InviterName, name),
		Message:        inv.Message,
		InvitationLink: h.acceptLink(inv.Token),
	}
	msg := mailer.BuildInvitationEmail(data)
	msg.To = to

	messageID, err := h.Mail.Send(ctx, msg)
	if err != nil {
		h.Log.Error("send invitation email",
			zap.String("invitation", inv.ID.Hex()), zap.String("to", to), zap.Error(err))
		if rerr := store.Revoke(ctx, inv.ID); rerr != nil {
			h.Log.Warn("revoke unsent invitation", zap.Error(rerr))
		}
		fail(w, http.StatusBadGateway, "the email could not be sent")
		return
	}
	if err := store.SetMessageID(ctx, inv.ID, messageID); err != nil {
		h.Log.Warn("record invitation message id", zap.Error(err))
	}

	h.Log.Info("invitation sent",
		zap.String("workspace", ws.ID.Hex()),
		zap.String("invitation", inv.ID.Hex()),
		zap.String("message_id", messageID))
	_ = httpjson.Write(w, http.StatusOK, sendResponse{Success: true, MessageID: messageID})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
