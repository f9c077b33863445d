// internal/app/features/boards/scroll.go
package boards

import (
	"net/http"
	"strconv"
)

// HandleScroll records where the page has scrolled the column strip, so
// later renders keep that position.
func (h *Handler) HandleScroll(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.boardPost(w, r)
	if !ok {
		return
	}
	left, err := strconv.Atoi(r.FormValue("left"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "scroll: bad offset", err, "Invalid request.", "")
		return
	}
	if view != nil {
		view.Reconciler.SetScroll(left)
	}
	w.WriteHeader(http.StatusNoContent)
}
