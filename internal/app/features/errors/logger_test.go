package errors

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogServerError_HTMXToast(t *testing.T) {
	el := NewErrorLogger(zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/boards/x/tasks", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	el.LogServerError(rec, req, "create task failed", stderrors.New("boom"), "Could not save the task.", "")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	trigger := rec.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"toast"`) || !strings.Contains(trigger, "Could not save the task.") {
		t.Errorf("HX-Trigger = %q", trigger)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Error("expected HX-Reswap none")
	}
}

func TestLogBadRequest_HTMX(t *testing.T) {
	el := NewErrorLogger(zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/boards/x/columns", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	el.LogBadRequest(rec, req, "bad form", stderrors.New("missing"), "Name is required.", "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), `"level":"error"`) {
		t.Errorf("HX-Trigger = %q", rec.Header().Get("HX-Trigger"))
	}
}

func TestTriggerToast(t *testing.T) {
	rec := httptest.NewRecorder()
	TriggerToast(rec, "info", "Saved")
	if got := rec.Header().Get("HX-Trigger"); got != `{"toast":{"level":"info","message":"Saved"}}` {
		t.Errorf("HX-Trigger = %s", got)
	}
}
