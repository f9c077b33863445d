// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/taskboard/internal/app/features/errors"
	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/ratelimit"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// defaultReturn is where a sign-in lands without a return URL.
const defaultReturn = "/workspaces"

// Authenticator checks an email and password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type Handler struct {
	Users      Authenticator
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter // nil disables throttling
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    ratelimit.NewLoginLimiter(),
		ErrLog:     errLog,
		Log:        logger,
	}
}

type loginFormData struct {
	Title      string
	IsLoggedIn bool
	UserName   string
	Error      string
	Email      string
	ReturnURL  string
}

// ServeLogin shows the sign-in form. GET /login
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, urlutil.SafeReturn(query.Get(r, "return"), "", defaultReturn), http.StatusSeeOther)
		return
	}
	templates.Render(w, r, "login", loginFormData{
		Title:     "Sign in",
		ReturnURL: query.Get(r, "return"),
	})
}

// HandleLoginPost checks credentials and starts a session. POST /login
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))
	if email == "" || password == "" {
		h.renderFormWithError(w, r, http.StatusBadRequest, "Please enter your email and password.", email, ret)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("login throttled", zap.String("email", email), zap.String("ip", ratelimit.ClientIP(r)))
			h.renderFormWithError(w, r, http.StatusTooManyRequests, reason, email, ret)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Authenticate(ctx, email, password)
	if errors.Is(err, userstore.ErrInvalidCredentials) {
		h.Log.Info("login rejected", zap.String("email", email))
		h.renderFormWithError(w, r, http.StatusUnauthorized, "That email and password do not match an active account.", email, ret)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "authenticate failed", err, "Sign-in is unavailable right now. Please try again.", "/login")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email}); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		h.renderFormWithError(w, r, http.StatusInternalServerError, "Unable to create session. Please try again.", email, ret)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()))
	http.Redirect(w, r, urlutil.SafeReturn(ret, "", defaultReturn), http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, status int, msg, email, ret string) {
	w.WriteHeader(status)
	templates.Render(w, r, "login", loginFormData{
		Title:     "Sign in",
		Error:     msg,
		Email:     email,
		ReturnURL: ret,
	})
}
