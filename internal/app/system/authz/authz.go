// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// UserCtx returns the user's name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "", NilObjectID, false, so ok=true always means a valid user id.
func UserCtx(r *http.Request) (name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; fail closed.
		return "", primitive.NilObjectID, false
	}
	return user.Name, userID, true
}

// CanAccessWorkspace reports whether userID owns or belongs to ws.
func CanAccessWorkspace(ws models.Workspace, userID primitive.ObjectID) bool {
	if userID.IsZero() {
		return false
	}
	return ws.OwnerID == userID || ws.HasMember(userID)
}

// CanAccessBoard reports whether userID owns b, is one of its members,
// or belongs to ws, the workspace holding it.
func CanAccessBoard(b models.Board, ws *models.Workspace, userID primitive.ObjectID) bool {
	if userID.IsZero() {
		return false
	}
	if b.OwnerID == userID {
		return true
	}
	for _, m := range b.Members {
		if m.UserID == userID {
			return true
		}
	}
	return ws != nil && ws.ID == b.WorkspaceID && CanAccessWorkspace(*ws, userID)
}

// CanManageWorkspace reports whether userID may invite members to ws.
func CanManageWorkspace(ws models.Workspace, userID primitive.ObjectID) bool {
	if userID.IsZero() {
		return false
	}
	if ws.OwnerID == userID {
		return true
	}
	for _, m := range ws.Members {
		if m.UserID == userID && m.Role == RoleOwner {
			return true
		}
	}
	return false
}
