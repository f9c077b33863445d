// internal/app/features/boards/stream.go
package boards

import (
	"net/http"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/realtime"
	"github.com/dalemusser/waffle/pantry/sse"
	"go.uber.org/zap"
)

// retryMillis is the reconnect delay suggested to EventSource clients.
const retryMillis = 3000

// ServeStream sends a view's queued patches as server-sent events. A view
// that no longer exists gets a single resync event so the page reloads.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	board, uid, ok := h.loadBoard(w, r)
	if !ok {
		return
	}
	_, claims, err := h.viewFor(r, board, uid)
	if err != nil {
		h.Log.Warn("bad view token on stream", zap.String("board", board.ID.Hex()), zap.Error(err))
		http.Error(w, "invalid view token", http.StatusForbidden)
		return
	}

	stream, err := sse.NewStream(w, r)
	if err != nil {
		h.Log.Error("stream unsupported", zap.Error(err))
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	defer stream.Close()
	w.WriteHeader(http.StatusOK)

	events, open := h.Broker.Events(claims.ViewID)
	if !open {
		_ = stream.Send(realtime.ResyncEvent().SSE())
		return
	}
	h.Views.Touch(claims.ViewID)
	if prev, ok := h.Views.Claim(tabKey(r, uid), claims.ViewID); ok {
		h.Broker.Close(prev)
	}
	if err := stream.SendRetry(retryMillis); err != nil {
		return
	}

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				_ = stream.Send(realtime.ResyncEvent().SSE())
				return
			}
			if err := stream.Send(ev.SSE()); err != nil {
				h.Log.Debug("stream write failed", zap.String("view", claims.ViewID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := stream.SendComment("ping"); err != nil {
				return
			}
			h.Views.Touch(claims.ViewID)
		}
	}
}

// HandleClose unmounts the view named by the posted token. Pages send it
// as a beacon when they are hidden for good.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	board, uid, ok := h.loadBoard(w, r)
	if !ok {
		return
	}
	_, claims, err := h.viewFor(r, board, uid)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.closeView(claims.ViewID)
	w.WriteHeader(http.StatusNoContent)
}
