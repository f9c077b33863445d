// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// ErrorLogger logs a handler failure and tells the browser about it. Full
// page requests get an error page; HTMX requests get a toast event.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger wraps logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Toast is the payload of the "toast" client event.
type Toast struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// TriggerToast sets the HX-Trigger header so the page shows msg.
func TriggerToast(w http.ResponseWriter, level, msg string) {
	payload, err := sonic.Marshal(map[string]Toast{"toast": {Level: level, Message: msg}})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
}

// LogServerError logs err and responds with a 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Error(logMsg, zap.Error(err), zap.String("path", r.URL.Path))
	e.respond(w, r, http.StatusInternalServerError, userMsg, backURL)
}

// LogBadRequest logs err at warn level and responds with a 400.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Warn(logMsg, zap.Error(err), zap.String("path", r.URL.Path))
	e.respond(w, r, http.StatusBadRequest, userMsg, backURL)
}

// LogForbidden logs an access denial and responds with a 403.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, logMsg, userMsg, backURL string) {
	e.log.Warn(logMsg, zap.String("path", r.URL.Path))
	e.respond(w, r, http.StatusForbidden, userMsg, backURL)
}

// LogNotFound logs a missing resource and responds with a 404.
func (e *ErrorLogger) LogNotFound(w http.ResponseWriter, r *http.Request, logMsg, userMsg, backURL string) {
	e.log.Info(logMsg, zap.String("path", r.URL.Path))
	e.respond(w, r, http.StatusNotFound, userMsg, backURL)
}

func (e *ErrorLogger) respond(w http.ResponseWriter, r *http.Request, status int, userMsg, backURL string) {
	if r.Header.Get("HX-Request") == "true" {
		TriggerToast(w, "error", userMsg)
		w.Header().Set("HX-Reswap", "none")
		w.WriteHeader(status)
		return
	}
	switch status {
	case http.StatusForbidden:
		RenderForbidden(w, r, userMsg, backURL)
	case http.StatusNotFound:
		RenderNotFound(w, r, userMsg, backURL)
	default:
		render(w, r, status, newPageData(r, http.StatusText(status), userMsg, backURL))
	}
}
