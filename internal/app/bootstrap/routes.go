// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	boardsfeature "github.com/dalemusser/taskboard/internal/app/features/boards"
	errorsfeature "github.com/dalemusser/taskboard/internal/app/features/errors"
	healthfeature "github.com/dalemusser/taskboard/internal/app/features/health"
	invitationsfeature "github.com/dalemusser/taskboard/internal/app/features/invitations"
	loginfeature "github.com/dalemusser/taskboard/internal/app/features/login"
	logoutfeature "github.com/dalemusser/taskboard/internal/app/features/logout"
	reportsfeature "github.com/dalemusser/taskboard/internal/app/features/reports"
	workspacesfeature "github.com/dalemusser/taskboard/internal/app/features/workspaces"
	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/mailer"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It boots the template engine, applies
// session middleware and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Reload the user on each request so disabled accounts lose access at once.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	rt := deps.Realtime
	db := deps.MongoDatabase

	r := chi.NewRouter()

	// Loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, rt.Views, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", promhttp.Handler())

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/workspaces", http.StatusSeeOther)
	})

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Workspaces and board creation
	wsHandler := workspacesfeature.NewHandler(db, rt.Docs, errLog, logger)
	r.Mount("/workspaces", workspacesfeature.Routes(wsHandler, sessionMgr))

	// Live boards
	boardsHandler := boardsfeature.NewHandler(db, rt.Docs, rt.Views, rt.Broker, rt.Tokens, errLog, logger)
	r.Mount("/boards", boardsfeature.Routes(boardsHandler, sessionMgr))

	// Invitations
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	invHandler := invitationsfeature.NewHandler(db, mail, appCfg.BaseURL, errLog, logger)
	r.Mount("/api/send-invitation", invitationsfeature.SendRoutes(invHandler, sessionMgr))
	r.Mount("/invitations", invitationsfeature.Routes(invHandler, sessionMgr))

	// Reports
	reportsHandler := reportsfeature.NewHandler(db, rt.Docs, logger)
	r.Mount("/api/reports", reportsfeature.Routes(reportsHandler, sessionMgr))

	return r, nil
}
