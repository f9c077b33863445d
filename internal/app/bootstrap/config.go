// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the task board.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: TASKBOARD_MONGO_URI, TASKBOARD_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "taskboard", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "taskboard-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Realtime board views
	{Name: "realtime_backend", Default: BackendChangeStream, Desc: "Change notification backend: 'changestream' (needs a replica set) or 'redis'"},
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address for the redis realtime backend"},
	{Name: "reconcile_cooldown", Default: "300ms", Desc: "Hold snapshots this long after a local change (negative disables)"},
	{Name: "optimistic_window", Default: "30s", Desc: "Keep unconfirmed local tasks visible for this long"},
	{Name: "view_client_width", Default: 1280, Desc: "Viewport width used to clamp board scroll"},
	{Name: "view_idle_timeout", Default: "2m", Desc: "Release board views idle for this long"},
	{Name: "view_token_key", Default: "", Desc: "Signing key for board view tokens (blank reuses session_key)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@taskboard.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Taskboard", Desc: "From display name"},

	// Base URL for invitation links
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, TASKBOARD_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TASKBOARD", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		RealtimeBackend:   strings.ToLower(strings.TrimSpace(appValues.String("realtime_backend"))),
		RedisAddr:         appValues.String("redis_addr"),
		ReconcileCooldown: appValues.Duration("reconcile_cooldown", 300*time.Millisecond),
		OptimisticWindow:  appValues.Duration("optimistic_window", 30*time.Second),
		ViewClientWidth:   appValues.Int("view_client_width"),
		ViewIdleTimeout:   appValues.Duration("view_idle_timeout", 2*time.Minute),
		ViewTokenKey:      appValues.String("view_token_key"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: appValues.String("base_url"),
	}
	if appCfg.ViewTokenKey == "" {
		appCfg.ViewTokenKey = appCfg.SessionKey
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.RealtimeBackend {
	case BackendChangeStream:
	case BackendRedis:
		if appCfg.RedisAddr == "" {
			return fmt.Errorf("realtime_backend %q requires redis_addr", BackendRedis)
		}
	default:
		return fmt.Errorf("realtime_backend must be %q or %q, got %q", BackendChangeStream, BackendRedis, appCfg.RealtimeBackend)
	}

	if appCfg.OptimisticWindow <= 0 {
		return fmt.Errorf("optimistic_window must be positive, got %s", appCfg.OptimisticWindow)
	}
	if appCfg.ViewIdleTimeout <= 0 {
		return fmt.Errorf("view_idle_timeout must be positive, got %s", appCfg.ViewIdleTimeout)
	}
	if appCfg.ViewClientWidth <= 0 {
		return fmt.Errorf("view_client_width must be positive, got %d", appCfg.ViewClientWidth)
	}
	if len(appCfg.ViewTokenKey) < 32 {
		logger.Warn("view token key is short; 32+ chars recommended",
			zap.Int("length", len(appCfg.ViewTokenKey)))
	}
	return nil
}
