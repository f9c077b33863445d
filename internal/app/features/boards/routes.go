// internal/app/features/boards/routes.go
package boards

import (
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the board page, its event stream, and the writes the
// page posts.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/{id}", h.ServePage)
	r.Get("/{id}/stream", h.ServeStream)

	r.Post("/{id}/columns", h.HandleCreateColumn)
	r.Post("/{id}/tasks", h.HandleCreateTask)
	r.Post("/{id}/actions", h.HandleAction)
	r.Post("/{id}/reorder", h.HandleReorder)
	r.Post("/{id}/scroll", h.HandleScroll)
	r.Post("/{id}/close", h.HandleClose)

	return r
}
