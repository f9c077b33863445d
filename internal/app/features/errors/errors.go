// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the basic view model for error pages.
type pageData struct {
	Title      string
	IsLoggedIn bool
	UserName   string
	Message    string
	BackURL    string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, "You don't have permission to view this page.", "/")
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	RenderUnauthorized(w, r, "/login")
}

func newPageData(r *http.Request, title, msg, backURL string) pageData {
	data := pageData{Title: title, Message: msg, BackURL: backURL}
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		data.IsLoggedIn = true
		data.UserName = u.Name
	}
	return data
}

func render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}
