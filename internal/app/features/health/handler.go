package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/system/httpjson"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// ViewCounter reports how many board views are mounted.
type ViewCounter interface {
	Len() int
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client Pinger
	Views  ViewCounter
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. views may be nil.
func NewHandler(client Pinger, views ViewCounter, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Views:  views,
		Log:    logger,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Views    *int   `json:"views,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "views":3 }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}
	if h.Views != nil {
		n := h.Views.Len()
		resp.Views = &n
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = httpjson.Write(w, http.StatusServiceUnavailable, resp)
		return
	}

	_ = httpjson.Write(w, http.StatusOK, resp)
}
