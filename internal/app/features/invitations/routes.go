// internal/app/features/invitations/routes.go
package invitations

import (
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// SendRoutes serves POST /api/send-invitation.
func SendRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Post("/", h.HandleSend)
	return r
}

// Routes mounts the accept link under /invitations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/{token}/accept", h.HandleAccept)
	return r
}
