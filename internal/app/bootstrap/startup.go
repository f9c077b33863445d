// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/taskboard/internal/app/resources"
	"github.com/dalemusser/taskboard/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()
	startJanitor(deps.Realtime, appCfg.ViewIdleTimeout, logger)
	return nil
}

// janitorInterval returns how often idle views are swept.
func janitorInterval(idle time.Duration) time.Duration {
	iv := idle / 4
	if iv < time.Second {
		iv = time.Second
	}
	return iv
}

// startJanitor releases views whose tab went away, then drops their
// event queue so a late stream reconnect resyncs.
func startJanitor(rt *Realtime, idle time.Duration, logger *zap.Logger) {
	if rt == nil {
		return
	}
	rt.Janitor = workers.NewViewJanitor(rt.Views, rt.Broker.Close, logger, janitorInterval(idle), idle)
	rt.Janitor.Start()
}
