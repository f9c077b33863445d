package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestRequireSignedIn(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(okHandler())

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantHeader string
	}{
		{"html redirects", map[string]string{"Accept": "text/html"}, http.StatusSeeOther, "Location"},
		{"api gets 401", map[string]string{"Accept": "application/json"}, http.StatusUnauthorized, ""},
		{"htmx gets HX-Redirect", map[string]string{"HX-Request": "true"}, http.StatusUnauthorized, "HX-Redirect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/boards/abc?x=1", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantHeader != "" && !strings.HasPrefix(rec.Header().Get(tt.wantHeader), "/login?return=") {
				t.Errorf("%s = %q, want /login redirect", tt.wantHeader, rec.Header().Get(tt.wantHeader))
			}
		})
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)
	req := httptest.NewRequest("GET", "/boards/abc", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Name: "Ada"})
	rec := httptest.NewRecorder()

	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

type fetcher struct{ disabled bool }

func (f fetcher) FetchSessionUser(_ context.Context, id string) *auth.SessionUser {
	if f.disabled {
		return nil
	}
	return &auth.SessionUser{ID: id, Name: "Fresh Name"}
}

func TestSignIn_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", nil)
	if err := sm.SignIn(rec, req, auth.SessionUser{ID: "u1", Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookie")
	}

	var got *auth.SessionUser
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	})

	next := httptest.NewRequest("GET", "/workspaces", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	sm.LoadSessionUser(capture).ServeHTTP(httptest.NewRecorder(), next)
	if got == nil || got.ID != "u1" || got.Email != "ada@example.com" {
		t.Fatalf("user not loaded from cookie: %+v", got)
	}

	sm.SetUserFetcher(fetcher{})
	got = nil
	sm.LoadSessionUser(capture).ServeHTTP(httptest.NewRecorder(), next)
	if got == nil || got.Name != "Fresh Name" {
		t.Errorf("fetcher not consulted: %+v", got)
	}

	sm.SetUserFetcher(fetcher{disabled: true})
	got = nil
	sm.LoadSessionUser(capture).ServeHTTP(httptest.NewRecorder(), next)
	if got != nil {
		t.Error("disabled user still loaded")
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if user, ok := auth.CurrentUser(req); ok || user != nil {
		t.Errorf("expected no user, got %+v", user)
	}
}

func TestViewTokens(t *testing.T) {
	tokens := auth.NewViewTokens([]byte("test-session-key-must-be-32-chars-long"), time.Hour)
	claims := auth.ViewClaims{ViewID: "v1", BoardID: "b1", UserID: "u1"}

	tok, err := tokens.Issue(claims)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := tokens.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != claims {
		t.Errorf("claims = %+v, want %+v", got, claims)
	}

	if _, err := tokens.Parse(tok + "x"); err != auth.ErrBadViewToken {
		t.Errorf("tampered token error = %v, want ErrBadViewToken", err)
	}

	other := auth.NewViewTokens([]byte("another-key-that-is-32-chars-long!!"), time.Hour)
	if _, err := other.Parse(tok); err != auth.ErrBadViewToken {
		t.Errorf("foreign token error = %v, want ErrBadViewToken", err)
	}
}
